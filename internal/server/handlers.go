package server

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"tripledger/internal/auth"
	"tripledger/internal/calculator"
	"tripledger/internal/models"
	"tripledger/internal/service"
	"tripledger/internal/storage"
)

// Amounts cross the wire as two-decimal strings, never JSON numbers, so
// clients see exactly what the ledger computed.

type credentialsRequest struct {
	Email       string `json:"email" binding:"required"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password" binding:"required"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

type expenseRequest struct {
	Name           string            `json:"name" binding:"required"`
	Amount         string            `json:"amount" binding:"required"`
	Currency       string            `json:"currency"`
	PaidByMemberID string            `json:"paid_by_member_id" binding:"required"`
	Date           string            `json:"date"`
	Category       string            `json:"category"`
	SplitMode      string            `json:"split_mode" binding:"required"`
	Participants   []string          `json:"participants" binding:"required"`
	CustomShares   map[string]string `json:"custom_shares"`
}

type expenseResponse struct {
	ID             string          `json:"id"`
	TripID         string          `json:"trip_id"`
	Name           string          `json:"name"`
	Amount         string          `json:"amount"`
	Currency       string          `json:"currency"`
	PaidByMemberID string          `json:"paid_by_member_id"`
	Date           string          `json:"date"`
	Category       string          `json:"category"`
	Splits         []splitResponse `json:"splits,omitempty"`
}

type splitResponse struct {
	MemberID    string `json:"member_id"`
	ShareAmount string `json:"share_amount"`
}

type settlementRequest struct {
	FromMemberID string `json:"from_member_id" binding:"required"`
	ToMemberID   string `json:"to_member_id" binding:"required"`
	Amount       string `json:"amount" binding:"required"`
	Currency     string `json:"currency"`
	Note         string `json:"note"`
}

type balanceResponse struct {
	MemberID   string `json:"member_id"`
	MemberName string `json:"member_name"`
	Balance    string `json:"balance"`
}

type transferResponse struct {
	FromMemberID string `json:"from_member_id"`
	FromName     string `json:"from_name"`
	ToMemberID   string `json:"to_member_id"`
	ToName       string `json:"to_name"`
	Amount       string `json:"amount"`
}

type currencyReportResponse struct {
	Currency string             `json:"currency"`
	Balances []balanceResponse  `json:"balances"`
	// Settled distinguishes "everyone is square in this currency" from the
	// trip simply having no expenses (no currencies at all).
	Settled     bool               `json:"settled"`
	Settlements []transferResponse `json:"settlements"`
}

type reportResponse struct {
	HasExpenses bool                     `json:"has_expenses"`
	Currencies  []currencyReportResponse `json:"currencies"`
}

// fail maps domain errors to HTTP status codes.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailExists):
		status = http.StatusConflict
	case errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, calculator.ErrInvalidAmount),
		errors.Is(err, calculator.ErrNoParticipants),
		errors.Is(err, calculator.ErrInvalidShare),
		errors.Is(err, calculator.ErrSplitMismatch),
		errors.Is(err, calculator.ErrUnknownMode),
		errors.Is(err, service.ErrCurrencyRequired),
		errors.Is(err, service.ErrPayerNotMember),
		errors.Is(err, service.ErrParticipantNotMember):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.auth.Register(c.Request.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionResponse{
		Token: token,
		User:  userResponse{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName},
	})
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{
		Token: token,
		User:  userResponse{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName},
	})
}

func (h *Handler) createTrip(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trip, err := h.trips.CreateTrip(c.Request.Context(), currentUserID(c), req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, trip)
}

func (h *Handler) listTrips(c *gin.Context) {
	trips, err := h.trips.ListTrips(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": trips})
}

func (h *Handler) getTrip(c *gin.Context) {
	trip, err := h.trips.GetTrip(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

func (h *Handler) deleteTrip(c *gin.Context) {
	if err := h.trips.DeleteTrip(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) addMember(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	member, err := h.trips.AddMember(c.Request.Context(), currentUserID(c), c.Param("id"), req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (h *Handler) listMembers(c *gin.Context) {
	members, err := h.trips.ListMembers(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (h *Handler) removeMember(c *gin.Context) {
	err := h.trips.RemoveMember(c.Request.Context(), currentUserID(c), c.Param("id"), c.Param("memberID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func expenseInput(req expenseRequest) service.ExpenseInput {
	return service.ExpenseInput{
		Name:           req.Name,
		Amount:         req.Amount,
		Currency:       req.Currency,
		PaidByMemberID: req.PaidByMemberID,
		Date:           req.Date,
		Category:       req.Category,
		SplitMode:      calculator.SplitMode(req.SplitMode),
		Participants:   req.Participants,
		CustomShares:   req.CustomShares,
	}
}

func expenseJSON(expense *models.Expense, splits []*models.ExpenseSplit) expenseResponse {
	resp := expenseResponse{
		ID:             expense.ID,
		TripID:         expense.TripID,
		Name:           expense.Name,
		Amount:         expense.Amount.StringFixed(2),
		Currency:       expense.Currency,
		PaidByMemberID: expense.PaidByMemberID,
		Date:           expense.Date,
		Category:       expense.Category,
	}
	for _, split := range splits {
		resp.Splits = append(resp.Splits, splitResponse{
			MemberID:    split.MemberID,
			ShareAmount: split.ShareAmount.StringFixed(2),
		})
	}
	sort.Slice(resp.Splits, func(i, j int) bool { return resp.Splits[i].MemberID < resp.Splits[j].MemberID })
	return resp
}

func (h *Handler) addExpense(c *gin.Context) {
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expense, splits, err := h.trips.AddExpense(c.Request.Context(), currentUserID(c), c.Param("id"), expenseInput(req))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, expenseJSON(expense, splits))
}

func (h *Handler) updateExpense(c *gin.Context) {
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expense, splits, err := h.trips.UpdateExpense(c.Request.Context(), currentUserID(c), c.Param("id"), expenseInput(req))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, expenseJSON(expense, splits))
}

func (h *Handler) listExpenses(c *gin.Context) {
	expenses, err := h.trips.ListExpenses(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	out := make([]expenseResponse, 0, len(expenses))
	for _, expense := range expenses {
		out = append(out, expenseJSON(expense, nil))
	}
	c.JSON(http.StatusOK, gin.H{"expenses": out})
}

func (h *Handler) deleteExpense(c *gin.Context) {
	if err := h.trips.DeleteExpense(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) recordSettlement(c *gin.Context) {
	var req settlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settlement, err := h.trips.RecordSettlement(c.Request.Context(), currentUserID(c), c.Param("id"),
		req.FromMemberID, req.ToMemberID, req.Amount, req.Currency, req.Note)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":             settlement.ID,
		"trip_id":        settlement.TripID,
		"from_member_id": settlement.FromMemberID,
		"to_member_id":   settlement.ToMemberID,
		"amount":         settlement.Amount.StringFixed(2),
		"currency":       settlement.Currency,
		"note":           settlement.Note,
	})
}

func (h *Handler) listSettlements(c *gin.Context) {
	settlements, err := h.trips.ListSettlements(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	out := make([]gin.H, 0, len(settlements))
	for _, s := range settlements {
		out = append(out, gin.H{
			"id":             s.ID,
			"from_member_id": s.FromMemberID,
			"to_member_id":   s.ToMemberID,
			"amount":         s.Amount.StringFixed(2),
			"currency":       s.Currency,
			"note":           s.Note,
		})
	}
	c.JSON(http.StatusOK, gin.H{"settlements": out})
}

func (h *Handler) deleteSettlement(c *gin.Context) {
	err := h.trips.DeleteSettlement(c.Request.Context(), currentUserID(c), c.Param("id"), c.Param("settlementID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) settlementReport(c *gin.Context) {
	userID := currentUserID(c)
	tripID := c.Param("id")

	report, err := h.trips.SettlementReport(c.Request.Context(), userID, tripID)
	if err != nil {
		fail(c, err)
		return
	}
	members, err := h.trips.ListMembers(c.Request.Context(), userID, tripID)
	if err != nil {
		fail(c, err)
		return
	}
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}

	resp := reportResponse{
		HasExpenses: len(report.Currencies) > 0,
		Currencies:  make([]currencyReportResponse, 0, len(report.Currencies)),
	}
	for _, cr := range report.Currencies {
		out := currencyReportResponse{
			Currency:    cr.Currency,
			Settled:     len(cr.Transfers) == 0,
			Settlements: make([]transferResponse, 0, len(cr.Transfers)),
		}
		for memberID, balance := range cr.Balances {
			out.Balances = append(out.Balances, balanceResponse{
				MemberID:   memberID,
				MemberName: names[memberID],
				Balance:    balance.StringFixed(2),
			})
		}
		sort.Slice(out.Balances, func(i, j int) bool { return out.Balances[i].MemberID < out.Balances[j].MemberID })
		for _, tr := range cr.Transfers {
			out.Settlements = append(out.Settlements, transferResponse{
				FromMemberID: tr.FromMemberID,
				FromName:     tr.FromName,
				ToMemberID:   tr.ToMemberID,
				ToName:       tr.ToName,
				Amount:       tr.Amount.StringFixed(2),
			})
		}
		resp.Currencies = append(resp.Currencies, out)
	}
	c.JSON(http.StatusOK, resp)
}
