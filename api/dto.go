/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request bodies are validated in handlers with go-playground/validator,
  DTOs themselves are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - jar: the domain types these project
*/
package api

import (
	"github.com/warp/swearjar/jar"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// AddVacationRequest creates a vacation for a player.
type AddVacationRequest struct {
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
}

// AddHolidayRequest creates a team-wide holiday.
type AddHolidayRequest struct {
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
}

// PurchaseRequest claims a shop item.
type PurchaseRequest struct {
	ItemID string `json:"itemId" validate:"required"`
}

// ImportRequest restores a backup.
type ImportRequest struct {
	Document   *jar.ExportDocument `json:"document" validate:"required"`
	ForceReset bool                `json:"forceReset"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// PlayerDTO is one player's public state.
type PlayerDTO struct {
	Name          string           `json:"name"`
	SwearCount    int              `json:"swearCount"`
	MonthCount    int              `json:"monthCount"`
	YearCount     int              `json:"yearCount"`
	Balance       int              `json:"balance"`
	Streak        int              `json:"streak"`
	LongestStreak int              `json:"longestStreak"`
	Status        jar.PlayerStatus `json:"status"`
	OnVacation    bool             `json:"onVacation"`
	MonthsWon     []string         `json:"monthsWon"`
	YearsWon      []string         `json:"yearsWon"`
	CleanMonths   []string         `json:"cleanMonths"`
}

// InfractionDTO reports the outcome of logging an infraction.
type InfractionDTO struct {
	Blocked      bool        `json:"blocked"`
	Reason       string      `json:"reason,omitempty"`
	Player       string      `json:"player"`
	SwearCount   int         `json:"swearCount"`
	MonthCount   int         `json:"monthCount"`
	YearCount    int         `json:"yearCount"`
	Balance      int         `json:"balance"`
	NewAwards    []jar.Award `json:"newAwards,omitempty"`
}

// VacationDTO is a live vacation interval.
type VacationDTO struct {
	ID        string `json:"id"`
	Player    string `json:"player"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	IsHoliday bool   `json:"isHoliday,omitempty"`
}

// HolidayDTO is a live team holiday.
type HolidayDTO struct {
	ID        string `json:"id"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// PurchaseDTO is one shop ledger entry enriched with catalogue metadata.
type PurchaseDTO struct {
	ID       string `json:"id"`
	Player   string `json:"player"`
	ItemID   string `json:"itemId"`
	ItemName string `json:"itemName,omitempty"`
	Icon     string `json:"icon,omitempty"`
	Cost     int    `json:"cost"`
	Type     string `json:"type"`
	Date     string `json:"date"`
}

// AchievementDTO is a catalogue entry plus who holds it.
type AchievementDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Team        bool     `json:"team"`
	HeldBy      []string `json:"heldBy,omitempty"`
	TeamHeld    bool     `json:"teamHeld,omitempty"`
}

// SyncStatusDTO reports the outcome of a manual sync.
type SyncStatusDTO struct {
	Synced  bool   `json:"synced"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

func toVacationDTOs(vs []*jar.Vacation) []VacationDTO {
	out := make([]VacationDTO, 0, len(vs))
	for _, v := range vs {
		out = append(out, VacationDTO{
			ID: v.ID, Player: v.Player,
			StartDate: v.StartDate, EndDate: v.EndDate,
			IsHoliday: v.IsHoliday,
		})
	}
	return out
}

func toHolidayDTOs(hs []*jar.Holiday) []HolidayDTO {
	out := make([]HolidayDTO, 0, len(hs))
	for _, h := range hs {
		out = append(out, HolidayDTO{ID: h.ID, StartDate: h.StartDate, EndDate: h.EndDate})
	}
	return out
}
