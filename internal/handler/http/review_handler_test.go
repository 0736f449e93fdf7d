package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kembakery/cakeshop/internal/auth"
	reviewHandler "github.com/kembakery/cakeshop/internal/handler/http"
	"github.com/kembakery/cakeshop/internal/review"
)

const testSecret = "test-secret"

func signToken(t *testing.T, userID uuid.UUID, isAdmin bool) string {
	t.Helper()

	claims := auth.Claims{
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) Create(ctx context.Context, userID uuid.UUID, input review.CreateInput) (*review.Review, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*review.Review), args.Error(1)
}

func (m *MockReviewService) UpdateByUser(ctx context.Context, id, userID uuid.UUID, patch review.UserPatch) (*review.Review, error) {
	args := m.Called(ctx, id, userID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*review.Review), args.Error(1)
}

func (m *MockReviewService) Delete(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool) error {
	args := m.Called(ctx, id, requesterID, isAdmin)
	return args.Error(0)
}

func (m *MockReviewService) ApprovedByProduct(ctx context.Context, productID uuid.UUID) ([]review.Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]review.Review), args.Error(1)
}

func (m *MockReviewService) ByUser(ctx context.Context, userID uuid.UUID) ([]review.Review, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]review.Review), args.Error(1)
}

func (m *MockReviewService) HasReviewed(ctx context.Context, userID, productID, orderID uuid.UUID) (*review.CheckResult, error) {
	args := m.Called(ctx, userID, productID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*review.CheckResult), args.Error(1)
}

func (m *MockReviewService) ProductStats(ctx context.Context, productID uuid.UUID) (*review.Stats, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*review.Stats), args.Error(1)
}

func (m *MockReviewService) Get(ctx context.Context, id uuid.UUID) (*review.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*review.Review), args.Error(1)
}

func (m *MockReviewService) List(ctx context.Context, filter review.ListFilter) (*review.ListResult, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*review.ListResult), args.Error(1)
}

func (m *MockReviewService) Approve(ctx context.Context, id uuid.UUID) (*review.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*review.Review), args.Error(1)
}

func (m *MockReviewService) ToggleVisibility(ctx context.Context, id uuid.UUID) (*review.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*review.Review), args.Error(1)
}

func (m *MockReviewService) AdminUpdate(ctx context.Context, id uuid.UUID, patch review.AdminPatch) (*review.Review, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*review.Review), args.Error(1)
}

func (m *MockReviewService) BulkApprove(ctx context.Context, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReviewService) BulkHide(ctx context.Context, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReviewService) BulkDelete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func newReviewRouter(mockService *MockReviewService) chi.Router {
	handler := reviewHandler.NewReviewHandler(mockService, auth.NewVerifier(testSecret))
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func TestReviewHandler_handleCreateReview_Success(t *testing.T) {
	mockService := new(MockReviewService)
	router := newReviewRouter(mockService)

	userID := uuid.Must(uuid.NewV4())
	productID := uuid.Must(uuid.NewV4())
	orderID := uuid.Must(uuid.NewV4())

	requestDTO := reviewHandler.CreateReviewRequest{
		ProductID: productID,
		OrderID:   orderID,
		Rating:    5,
		Comment:   "Delicious cake",
	}

	mockServiceResponse := review.Review{
		ID:        uuid.Must(uuid.NewV4()),
		ProductID: productID,
		UserID:    userID,
		OrderID:   orderID,
		Rating:    5,
		Comment:   "Delicious cake",
	}

	mockService.On("Create", mock.Anything, userID, mock.MatchedBy(func(input review.CreateInput) bool {
		return input.ProductID == productID && input.OrderID == orderID && input.Rating == 5
	})).Return(&mockServiceResponse, nil).Once()

	jsonBody, err := json.Marshal(requestDTO)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/reviews", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID, false))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var actualResponse review.Review
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&actualResponse))
	assert.Equal(t, mockServiceResponse.ID, actualResponse.ID)
	assert.False(t, actualResponse.IsApproved)
	mockService.AssertExpectations(t)
}

func TestReviewHandler_handleCreateReview_Unauthorized(t *testing.T) {
	mockService := new(MockReviewService)
	router := newReviewRouter(mockService)

	req := httptest.NewRequest(http.MethodPost, "/reviews", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	mockService.AssertNotCalled(t, "Create")
}

func TestReviewHandler_handleCreateReview_NotPurchased(t *testing.T) {
	mockService := new(MockReviewService)
	router := newReviewRouter(mockService)

	userID := uuid.Must(uuid.NewV4())
	requestDTO := reviewHandler.CreateReviewRequest{
		ProductID: uuid.Must(uuid.NewV4()),
		OrderID:   uuid.Must(uuid.NewV4()),
		Rating:    4,
	}

	mockService.On("Create", mock.Anything, userID, mock.Anything).
		Return(nil, review.ErrNotPurchased).
		Once()

	jsonBody, err := json.Marshal(requestDTO)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/reviews", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID, false))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	mockService.AssertExpectations(t)
}

func TestReviewHandler_handleCreateReview_Duplicate(t *testing.T) {
	mockService := new(MockReviewService)
	router := newReviewRouter(mockService)

	userID := uuid.Must(uuid.NewV4())
	requestDTO := reviewHandler.CreateReviewRequest{
		ProductID: uuid.Must(uuid.NewV4()),
		OrderID:   uuid.Must(uuid.NewV4()),
		Rating:    4,
	}

	mockService.On("Create", mock.Anything, userID, mock.Anything).
		Return(nil, review.ErrAlreadyReviewed).
		Once()

	jsonBody, err := json.Marshal(requestDTO)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/reviews", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID, false))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	mockService.AssertExpectations(t)
}

func TestReviewHandler_handleCreateReview_InvalidRating(t *testing.T) {
	mockService := new(MockReviewService)
	router := newReviewRouter(mockService)

	userID := uuid.Must(uuid.NewV4())
	body := []byte(`{"productId":"` + uuid.Must(uuid.NewV4()).String() +
		`","orderId":"` + uuid.Must(uuid.NewV4()).String() + `","rating":6}`)

	req := httptest.NewRequest(http.MethodPost, "/reviews", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID, false))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	mockService.AssertNotCalled(t, "Create")
}

func TestReviewHandler_handleProductStats(t *testing.T) {
	mockService := new(MockReviewService)
	router := newReviewRouter(mockService)

	productID := uuid.Must(uuid.NewV4())
	stats := review.Stats{
		AverageRating: 3.75,
		TotalReviews:  4,
		Distribution:  map[int]int{1: 1, 2: 0, 3: 0, 4: 1, 5: 2},
	}

	mockService.On("ProductStats", mock.Anything, productID).Return(&stats, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/reviews/products/"+productID.String()+"/stats", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var actualResponse review.Stats
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&actualResponse))
	if diff := cmp.Diff(stats, actualResponse); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
	mockService.AssertExpectations(t)
}

func TestReviewHandler_adminRoutes_RequireAdmin(t *testing.T) {
	mockService := new(MockReviewService)
	router := newReviewRouter(mockService)

	userID := uuid.Must(uuid.NewV4())

	req := httptest.NewRequest(http.MethodGet, "/reviews/admin/all", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID, false))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	mockService.AssertNotCalled(t, "List")
}

func TestReviewHandler_handleAdminList_Filters(t *testing.T) {
	mockService := new(MockReviewService)
	router := newReviewRouter(mockService)

	adminID := uuid.Must(uuid.NewV4())

	mockService.On("List", mock.Anything, mock.MatchedBy(func(filter review.ListFilter) bool {
		return filter.Page == 2 && filter.Limit == 10 &&
			filter.IsApproved != nil && !*filter.IsApproved
	})).Return(&review.ListResult{Items: []review.Review{}, Total: 0, Page: 2, Limit: 10}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/reviews/admin/all?page=2&limit=10&isApproved=false", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, adminID, true))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	mockService.AssertExpectations(t)
}

func TestReviewHandler_handleBulkApprove(t *testing.T) {
	mockService := new(MockReviewService)
	router := newReviewRouter(mockService)

	adminID := uuid.Must(uuid.NewV4())
	ids := []uuid.UUID{uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())}

	mockService.On("BulkApprove", mock.Anything, ids).Return(int64(2), nil).Once()

	jsonBody, err := json.Marshal(reviewHandler.BulkReviewRequest{ReviewIDs: ids})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/reviews/admin/bulk-approve", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, adminID, true))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var actualResponse reviewHandler.BulkReviewResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&actualResponse))
	assert.Equal(t, int64(2), actualResponse.Affected)
	mockService.AssertExpectations(t)
}

func TestReviewHandler_handleBulkApprove_EmptyIDs(t *testing.T) {
	mockService := new(MockReviewService)
	router := newReviewRouter(mockService)

	adminID := uuid.Must(uuid.NewV4())

	req := httptest.NewRequest(http.MethodPost, "/reviews/admin/bulk-approve", bytes.NewBufferString(`{"reviewIds":[]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signToken(t, adminID, true))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	mockService.AssertNotCalled(t, "BulkApprove")
}

func TestReviewHandler_handleDeleteReview_Forbidden(t *testing.T) {
	mockService := new(MockReviewService)
	router := newReviewRouter(mockService)

	userID := uuid.Must(uuid.NewV4())
	reviewID := uuid.Must(uuid.NewV4())

	mockService.On("Delete", mock.Anything, reviewID, userID, false).
		Return(review.ErrForbidden).
		Once()

	req := httptest.NewRequest(http.MethodDelete, "/reviews/"+reviewID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID, false))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	mockService.AssertExpectations(t)
}
