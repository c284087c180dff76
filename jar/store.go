/*
store.go - Persistence interface for jar documents

PURPOSE:
  Defines the interface between the domain logic and the database. The jar
  persists two JSON documents, the score dataset and the achievement store,
  each under a fixed key. Whole-document writes keep the local store and the
  remote gist trivially interchangeable.

KEYS:
  DocScores:       the Dataset (players, vacations, purchases, watermarks)
  DocAchievements: the AwardStore (individual and team awards)

IMPLEMENTATIONS:
  - store/sqlite: production single-file database
  - store/memory: in-memory for testing
*/
package jar

import "context"

// Document keys.
const (
	DocScores       = "scores"
	DocAchievements = "achievements"
)

// DocumentStore persists named JSON documents. Get returns ErrDocumentNotFound
// for a key that was never written.
type DocumentStore interface {
	// Get returns the raw document under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put replaces the document under key.
	Put(ctx context.Context, key string, doc []byte) error

	// Close releases the underlying resources.
	Close() error
}
