package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/papertrade/internal/database"
	"github.com/aristath/papertrade/internal/modules/accounts"
	"github.com/aristath/papertrade/internal/modules/portfolio"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers handles system-wide monitoring endpoints
type SystemHandlers struct {
	log             zerolog.Logger
	db              *database.DB
	accountRepo     *accounts.Repository
	transactionRepo *portfolio.TransactionRepository
	startupTime     time.Time
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(
	log zerolog.Logger,
	db *database.DB,
	accountRepo *accounts.Repository,
	transactionRepo *portfolio.TransactionRepository,
) *SystemHandlers {
	return &SystemHandlers{
		log:             log.With().Str("handler", "system").Logger(),
		db:              db,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		startupTime:     time.Now(),
	}
}

// SystemStatusResponse is the payload for the system status endpoint
type SystemStatusResponse struct {
	Status           string  `json:"status"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
	CPUPercent       float64 `json:"cpu_percent"`
	MemoryPercent    float64 `json:"memory_percent"`
	AccountCount     int     `json:"account_count"`
	TransactionCount int     `json:"transaction_count"`
}

// HandleHealth is a lightweight liveness probe backed by a database ping
// GET /health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.db.QuickCheck(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Health check failed")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// HandleSystemStatus returns uptime, resource usage and row counts
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.resourceUsage()

	response := SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: time.Since(h.startupTime).Seconds(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
	}

	if count, err := h.accountRepo.Count(); err == nil {
		response.AccountCount = count
	} else {
		h.log.Warn().Err(err).Msg("Failed to count accounts")
	}

	if count, err := h.transactionRepo.Count(); err == nil {
		response.TransactionCount = count
	} else {
		h.log.Warn().Err(err).Msg("Failed to count transactions")
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

// resourceUsage returns average CPU percentage and RAM usage percentage
func (h *SystemHandlers) resourceUsage() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
