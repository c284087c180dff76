/*
handlers.go - HTTP API handlers for the swear jar

PURPOSE:
  Exposes the jar engine via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to the domain service.

ENDPOINTS:
  Players:
    GET    /api/players                       List all players
    GET    /api/players/{name}                One player
    POST   /api/players/{name}/infractions   Log an infraction
    GET    /api/players/{name}/vacations     List live vacations
    POST   /api/players/{name}/vacations     Add a vacation
    DELETE /api/players/{name}/vacations/{id} Remove a vacation
    POST   /api/players/{name}/purchases     Claim a shop item

  Team:
    GET    /api/holidays                     List live holidays
    POST   /api/holidays                     Add a holiday (admin)
    DELETE /api/holidays/{id}                Remove a holiday (admin)
    GET    /api/leaderboard?period=...       Ranked board
    GET    /api/report                       Team aggregate
    GET    /api/achievements                 Catalogue with holders
    GET    /api/shop/items                   Shop catalogue
    GET    /api/shop/purchases               Purchase history

  Sync and admin:
    POST   /api/sync                         Run one sync cycle now
    GET    /api/export                       Download a backup
    POST   /api/import                       Restore a backup (admin)
    POST   /api/admin/force-reset            Arm the reset marker (admin)
    POST   /api/admin/sweep                  Run the daily sweep now

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 403: Caller not on the allow-list / not admin
  - 404: Unknown player, vacation, holiday
  - 409: Balance gate rejected a purchase
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - jar/service.go: The domain operations these wrap
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/warp/swearjar/calendar"
	"github.com/warp/swearjar/config"
	"github.com/warp/swearjar/jar"
	"github.com/warp/swearjar/syncer"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *jar.Service
	Engine  *syncer.Engine // nil when sync is not configured
	Cfg     *config.Config
	Log     *zap.Logger

	// Now is the handler clock, overridable in tests.
	Now func() time.Time

	validate *validator.Validate
}

// NewHandler creates a new handler.
func NewHandler(svc *jar.Service, engine *syncer.Engine, cfg *config.Config, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Service:  svc,
		Engine:   engine,
		Cfg:      cfg,
		Log:      log,
		Now:      time.Now,
		validate: validator.New(),
	}
}

// =============================================================================
// PLAYER ENDPOINTS
// =============================================================================

// ListPlayers returns the whole roster with current counts and balances.
// GET /api/players
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	d, _, err := h.Service.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load players", err)
		return
	}
	board := d.Leaderboard(jar.PeriodMonth, h.Now())

	dtos := make([]PlayerDTO, 0, len(board))
	for _, e := range board {
		dtos = append(dtos, h.playerDTO(d, e.Player))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPlayer returns one player.
// GET /api/players/{name}
func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	d, _, err := h.Service.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load player", err)
		return
	}
	if _, ok := d.Players[name]; !ok {
		writeError(w, http.StatusNotFound, "Unknown player", jar.ErrUnknownPlayer)
		return
	}
	writeJSON(w, http.StatusOK, h.playerDTO(d, name))
}

func (h *Handler) playerDTO(d *jar.Dataset, name string) PlayerDTO {
	p := d.Players[name]
	at := h.Now()
	return PlayerDTO{
		Name:          name,
		SwearCount:    p.SwearCount,
		MonthCount:    p.Monthly[calendar.MonthKey(at)],
		YearCount:     p.Yearly[calendar.YearKey(at)],
		Balance:       p.Balance(),
		Streak:        d.CurrentStreak(name, at),
		LongestStreak: p.LongestStreak,
		Status:        jar.StatusFor(p.SwearCount),
		OnVacation:    d.IsPlayerOnVacation(name, at),
		MonthsWon:     p.MonthsWon,
		YearsWon:      p.YearsWon,
		CleanMonths:   p.CleanMonths,
	}
}

// AddInfraction logs one infraction for the player.
// POST /api/players/{name}/infractions
func (h *Handler) AddInfraction(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	res, awards, err := h.Service.AddInfraction(r.Context(), name)
	if err != nil {
		h.writeDomainError(w, "Failed to add infraction", err)
		return
	}
	writeJSON(w, http.StatusOK, InfractionDTO{
		Blocked:    res.Blocked,
		Reason:     string(res.Reason),
		Player:     res.Player,
		SwearCount: res.SwearCount,
		MonthCount: res.MonthCount,
		YearCount:  res.YearCount,
		Balance:    res.Balance,
		NewAwards:  awards,
	})
}

// =============================================================================
// VACATION ENDPOINTS
// =============================================================================

// ListVacations returns a player's live vacations.
// GET /api/players/{name}/vacations
func (h *Handler) ListVacations(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	d, _, err := h.Service.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load vacations", err)
		return
	}
	if _, ok := d.Players[name]; !ok {
		writeError(w, http.StatusNotFound, "Unknown player", jar.ErrUnknownPlayer)
		return
	}
	writeJSON(w, http.StatusOK, toVacationDTOs(d.ActiveVacations(name)))
}

// AddVacation records a vacation interval.
// POST /api/players/{name}/vacations
func (h *Handler) AddVacation(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req AddVacationRequest
	if !h.decode(w, r, &req) {
		return
	}
	v, err := h.Service.AddVacation(r.Context(), name, req.StartDate, req.EndDate)
	if err != nil {
		h.writeDomainError(w, "Failed to add vacation", err)
		return
	}
	writeJSON(w, http.StatusCreated, toVacationDTOs([]*jar.Vacation{v})[0])
}

// RemoveVacation soft-deletes a vacation.
// DELETE /api/players/{name}/vacations/{id}
func (h *Handler) RemoveVacation(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	id := chi.URLParam(r, "id")

	if err := h.Service.RemoveVacation(r.Context(), name, id); err != nil {
		h.writeDomainError(w, "Failed to remove vacation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HOLIDAY ENDPOINTS
// =============================================================================

// ListHolidays returns all live holidays.
// GET /api/holidays
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	d, _, err := h.Service.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load holidays", err)
		return
	}
	writeJSON(w, http.StatusOK, toHolidayDTOs(d.ActiveHolidays()))
}

// AddHoliday records a team-wide holiday.
// POST /api/holidays
func (h *Handler) AddHoliday(w http.ResponseWriter, r *http.Request) {
	var req AddHolidayRequest
	if !h.decode(w, r, &req) {
		return
	}
	hol, err := h.Service.AddHoliday(r.Context(), req.StartDate, req.EndDate)
	if err != nil {
		h.writeDomainError(w, "Failed to add holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTOs([]*jar.Holiday{hol})[0])
}

// RemoveHoliday soft-deletes a holiday and its mirrored vacations.
// DELETE /api/holidays/{id}
func (h *Handler) RemoveHoliday(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Service.RemoveHoliday(r.Context(), id); err != nil {
		h.writeDomainError(w, "Failed to remove holiday", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SHOP ENDPOINTS
// =============================================================================

// ListShopItems returns the static catalogue.
// GET /api/shop/items
func (h *Handler) ListShopItems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, jar.ShopItems())
}

// ListPurchases returns the purchase history, newest first.
// GET /api/shop/purchases
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	d, _, err := h.Service.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load purchases", err)
		return
	}
	dtos := make([]PurchaseDTO, 0, len(d.Purchases))
	for i := len(d.Purchases) - 1; i >= 0; i-- {
		pu := d.Purchases[i]
		dto := PurchaseDTO{
			ID: pu.ID, Player: pu.Player, ItemID: pu.ItemID,
			Cost: pu.Cost, Type: string(pu.Type),
			Date: pu.Date.Format("2006-01-02"),
		}
		if item, ok := jar.ShopItemByID(pu.ItemID); ok {
			dto.ItemName = item.Name
			dto.Icon = item.Icon
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Purchase claims a shop item for the player.
// POST /api/players/{name}/purchases
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req PurchaseRequest
	if !h.decode(w, r, &req) {
		return
	}
	pu, awards, err := h.Service.Purchase(r.Context(), name, req.ItemID)
	if err != nil {
		h.writeDomainError(w, "Failed to complete purchase", err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Purchase  *jar.Purchase `json:"purchase"`
		NewAwards []jar.Award   `json:"newAwards,omitempty"`
	}{pu, awards})
}

// =============================================================================
// ACHIEVEMENT / BOARD ENDPOINTS
// =============================================================================

// ListAchievements returns the catalogue with current holders.
// GET /api/achievements
func (h *Handler) ListAchievements(w http.ResponseWriter, r *http.Request) {
	_, aw, err := h.Service.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load achievements", err)
		return
	}

	defs := jar.Achievements()
	dtos := make([]AchievementDTO, 0, len(defs))
	for _, def := range defs {
		dto := AchievementDTO{
			ID: def.ID, Name: def.Name, Description: def.Description,
			Icon: def.Icon, Team: def.Team,
		}
		if def.Team {
			dto.TeamHeld = aw.HasTeam(def.ID)
		} else {
			for player, awards := range aw.Individual {
				for _, a := range awards {
					if a.ID == def.ID {
						dto.HeldBy = append(dto.HeldBy, player)
						break
					}
				}
			}
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Leaderboard returns the ranked board.
// GET /api/leaderboard?period=month|year|all
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	period := jar.Period(r.URL.Query().Get("period"))
	switch period {
	case jar.PeriodMonth, jar.PeriodYear, jar.PeriodAll:
	case "":
		period = jar.PeriodMonth
	default:
		writeError(w, http.StatusBadRequest, "Unknown period", nil)
		return
	}
	board, err := h.Service.Leaderboard(r.Context(), period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build leaderboard", err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// Report returns team-wide aggregates.
// GET /api/report
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.Report(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// =============================================================================
// SYNC / ADMIN ENDPOINTS
// =============================================================================

// Sync runs one pull-merge-push cycle immediately.
// POST /api/sync
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	if h.Engine == nil {
		writeJSON(w, http.StatusOK, SyncStatusDTO{
			Synced: false, Kind: string(syncer.KindConfig),
			Message: "sync is not configured",
		})
		return
	}
	if err := h.Engine.Sync(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, SyncStatusDTO{
			Synced: false, Kind: string(syncer.KindOf(err)), Message: err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, SyncStatusDTO{Synced: true})
}

// Sweep runs the daily bonus pass immediately.
// POST /api/admin/sweep
func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	res, awards, err := h.Service.Sweep(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Sweep failed", err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		jar.SweepResult
		NewAwards []jar.Award `json:"newAwards,omitempty"`
	}{res, awards})
}

// Export downloads a full backup.
// GET /api/export
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Service.Export(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Export failed", err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="swearjar_backup.json"`)
	writeJSON(w, http.StatusOK, doc)
}

// Import restores a backup.
// POST /api/import
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Service.Import(r.Context(), req.Document, req.ForceReset); err != nil {
		h.writeDomainError(w, "Import failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ForceReset arms the reset marker so other devices adopt local state.
// POST /api/admin/force-reset
func (h *Handler) ForceReset(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.ForceReset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Force reset failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case jar.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, jar.ErrInsufficientBalance),
		errors.Is(err, jar.ErrBalanceNotNegativeEnough):
		writeError(w, http.StatusConflict, message, err)
	case jar.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Log.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
