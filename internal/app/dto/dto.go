package dto

import (
	"encoding/json"
	"time"

	"sprintdesk/internal/app/pricing"
)

// ============ Общие структуры ============

type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// TotalsResponse - итоги расчета, округленные до одного знака
type TotalsResponse struct {
	Points float64 `json:"total_estimate_points"`
	Hours  float64 `json:"total_fixed_hours"`
	Price  float64 `json:"total_fixed_price"`
}

// ============ Аутентификация ============

type MagicLinkRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

type AccountResponse struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Company  string `json:"company"`
	Role     string `json:"role"`
}

type AuthResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Account   AccountResponse `json:"account"`
}

type UpdateProfileRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,max=100"`
	Company  *string `json:"company" binding:"omitempty,max=100"`
}

// ============ Каталог результатов (Deliverables) ============

type DeliverableResponse struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Points      float64 `json:"default_estimate_points"`
	ImageURL    string  `json:"image_url,omitempty"`
}

type DeliverableListResponse struct {
	Deliverables []DeliverableResponse `json:"deliverables"`
	Categories   []string              `json:"categories"`
	Total        int                   `json:"total"`
}

type CreateDeliverableRequest struct {
	Name        string  `json:"name" binding:"required,max=200"`
	Description string  `json:"description"`
	Category    string  `json:"category" binding:"max=100"`
	Points      float64 `json:"default_estimate_points" binding:"gte=0"`
}

type UpdateDeliverableRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string  `json:"description"`
	Category    *string  `json:"category" binding:"omitempty,max=100"`
	Points      *float64 `json:"default_estimate_points" binding:"omitempty,gte=0"`
}

// ============ Пакеты спринтов ============

type PackageItemResponse struct {
	DeliverableID   uint    `json:"deliverable_id"`
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	BasePoints      float64 `json:"default_estimate_points"`
	Quantity        float64 `json:"quantity"`
	ComplexityScore float64 `json:"complexity_score"`
	EffectivePoints float64 `json:"effective_points"`
}

type SprintPackageResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
	TotalsResponse
	Items []PackageItemResponse `json:"items,omitempty"`
}

type SprintPackageListResponse struct {
	Packages []SprintPackageResponse `json:"packages"`
	Total    int                     `json:"total"`
}

type CreateSprintPackageRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Slug        string `json:"slug" binding:"omitempty,max=200"`
	Description string `json:"description"`
}

type UpdateSprintPackageRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

type SetPackageItemRequest struct {
	Quantity        *float64 `json:"quantity" binding:"omitempty,gt=0"`
	ComplexityScore *float64 `json:"complexity_score" binding:"omitempty,gt=0"`
}

// ============ Черновики спринтов ============

type SprintItemResponse struct {
	DeliverableID        uint     `json:"deliverable_id"`
	Name                 string   `json:"name"`
	Description          string   `json:"description"`
	Category             string   `json:"category"`
	BasePoints           float64  `json:"default_estimate_points"`
	Quantity             float64  `json:"quantity"`
	ComplexityScore      float64  `json:"complexity_score"`
	CustomEstimatePoints *float64 `json:"custom_estimate_points,omitempty"`
	Hours                *float64 `json:"custom_hours,omitempty"`
	EffectivePoints      float64  `json:"effective_points"`
}

type SprintDraftResponse struct {
	ID           uint       `json:"id"`
	Title        string     `json:"title"`
	Status       string     `json:"status"`
	AccountEmail string     `json:"account_email"`
	Reviewer     string     `json:"reviewer,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	TotalsResponse
	ItemsCount int                  `json:"items_count"`
	Items      []SprintItemResponse `json:"items,omitempty"` // Только для GET одного спринта
}

type SprintDraftListResponse struct {
	Drafts []SprintDraftResponse `json:"drafts"`
	Total  int                   `json:"total"`
}

type CreateSprintDraftRequest struct {
	Title     string `json:"title" binding:"max=200"`
	PackageID *uint  `json:"package_id"`
}

type UpdateSprintDraftRequest struct {
	Title string `json:"title" binding:"required,max=200"`
}

type AddSprintItemRequest struct {
	DeliverableID   uint     `json:"deliverable_id" binding:"required"`
	Quantity        *float64 `json:"quantity" binding:"omitempty,gt=0"`
	ComplexityScore *float64 `json:"complexity_score" binding:"omitempty,gt=0"`
}

type UpdateSprintItemRequest struct {
	Quantity             *float64 `json:"quantity" binding:"omitempty,gt=0"`
	ComplexityScore      *float64 `json:"complexity_score" binding:"omitempty,gt=0"`
	CustomEstimatePoints *float64 `json:"custom_estimate_points" binding:"omitempty,gte=0"`
	ClearCustomPoints    bool     `json:"clear_custom_points"`
}

// ============ Расчет стоимости ============

type PricingEstimateRequest struct {
	Items []pricing.ItemInput `json:"items"`
}

type EstimateItemResponse struct {
	EffectivePoints float64 `json:"effective_points"`
	Hours           float64 `json:"hours"`
}

type PricingEstimateResponse struct {
	TotalsResponse
	Items []EstimateItemResponse `json:"items"`
}

type FormulaResponse struct {
	Formula       string  `json:"formula"`
	BaseFee       float64 `json:"base_fee"`
	PricePerPoint float64 `json:"price_per_point"`
	HoursPerPoint float64 `json:"hours_per_point"`
}

// ============ Счета ============

type CreateInvoiceRequest struct {
	SprintDraftID uint `json:"sprint_draft_id" binding:"required"`
}

type InvoiceResponse struct {
	ID              uint       `json:"id"`
	Number          string     `json:"number"`
	SprintDraftID   uint       `json:"sprint_draft_id"`
	AccountEmail    string     `json:"account_email"`
	Amount          string     `json:"amount"`
	Status          string     `json:"status"`
	StripeReference string     `json:"stripe_reference,omitempty"`
	IssuedAt        time.Time  `json:"issued_at"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
}

type InvoiceListResponse struct {
	Invoices []InvoiceResponse `json:"invoices"`
	Total    int               `json:"total"`
}

// ============ Документы ============

type DocumentResponse struct {
	ID            uint      `json:"id"`
	FileName      string    `json:"file_name"`
	ContentType   string    `json:"content_type"`
	Size          int64     `json:"size"`
	SprintDraftID *uint     `json:"sprint_draft_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	URL           string    `json:"url,omitempty"`
}

type DocumentListResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Total     int                `json:"total"`
}

// ============ Анкеты (Typeform) ============

type IntakeSubmissionResponse struct {
	ID            uint            `json:"id"`
	FormID        string          `json:"form_id"`
	ResponseToken string          `json:"response_token"`
	Email         string          `json:"email"`
	AccountID     *uint           `json:"account_id,omitempty"`
	Answers       json.RawMessage `json:"answers,omitempty"`
	SubmittedAt   time.Time       `json:"submitted_at"`
}

type IntakeListResponse struct {
	Submissions []IntakeSubmissionResponse `json:"submissions"`
	Total       int                        `json:"total"`
}

// ============ Панель администратора ============

type DashboardResponse struct {
	DraftsByStatus    map[string]int64           `json:"drafts_by_status"`
	OpenInvoices      int64                      `json:"open_invoices"`
	OutstandingAmount string                     `json:"outstanding_amount"`
	PaidAmount        string                     `json:"paid_amount"`
	PipelineValue     float64                    `json:"pipeline_value"`
	DeliverableCount  int64                      `json:"deliverable_count"`
	AccountCount      int64                      `json:"account_count"`
	RecentSubmissions []IntakeSubmissionResponse `json:"recent_submissions"`
}
