package handlers

import (
	"cafeorders/internal/domain"
	"cafeorders/internal/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type productRequest struct {
	Name          string           `json:"name" validate:"required,max=100"`
	Description   *string          `json:"description" validate:"omitempty,max=1000"`
	Price         *decimal.Decimal `json:"price" validate:"required,gte=0"`
	Category      string           `json:"category" validate:"required,max=60"`
	StockQuantity *int             `json:"stockQuantity" validate:"omitempty,gte=0"`
	InStock       *bool            `json:"inStock"`
}

func (r productRequest) product() domain.Product {
	p := domain.Product{
		Name:          r.Name,
		Description:   r.Description,
		Price:         *r.Price,
		Category:      r.Category,
		StockQuantity: r.StockQuantity,
		InStock:       true,
	}
	if r.InStock != nil {
		p.InStock = *r.InStock
	}
	return p
}

type productPatchRequest struct {
	Name          *string          `json:"name" validate:"omitempty,min=1,max=100"`
	Description   *string          `json:"description" validate:"omitempty,max=1000"`
	Price         *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Category      *string          `json:"category" validate:"omitempty,min=1,max=60"`
	StockQuantity *int             `json:"stockQuantity" validate:"omitempty,gte=0"`
	InStock       *bool            `json:"inStock"`
}

func (r productPatchRequest) patch() domain.ProductPatch {
	return domain.ProductPatch{
		Name:          r.Name,
		Description:   r.Description,
		Price:         r.Price,
		Category:      r.Category,
		StockQuantity: r.StockQuantity,
		InStock:       r.InStock,
	}
}

type orderLineRequest struct {
	ProductID int64 `json:"productId" validate:"gt=0"`
	Quantity  int   `json:"quantity" validate:"gte=1,lte=100"`
}

type createOrderRequest struct {
	Items         []orderLineRequest    `json:"items" validate:"dive"`
	PaymentMethod domain.PaymentMethod  `json:"paymentMethod" validate:"required,oneof=cash online both"`
	CashAmount    *decimal.Decimal      `json:"cashAmount" validate:"omitempty,gte=0"`
	OnlineAmount  *decimal.Decimal      `json:"onlineAmount" validate:"omitempty,gte=0"`
	Status        *domain.OrderStatus   `json:"status" validate:"omitempty,oneof=pending confirmed"`
	PaymentStatus *domain.PaymentStatus `json:"paymentStatus" validate:"omitempty,oneof=unpaid pending paid"`
}

type statusRequest struct {
	Status        domain.OrderStatus    `json:"status" validate:"required"`
	PaymentStatus *domain.PaymentStatus `json:"paymentStatus"`
}

type sendOTPRequest struct {
	Mobile string `json:"mobile" validate:"required,mobile"`
}

type verifyOTPRequest struct {
	Mobile string `json:"mobile" validate:"required,mobile"`
	OTP    string `json:"otp" validate:"required,otp"`
}

type adminLoginRequest struct {
	Mobile   string `json:"mobile" validate:"required"`
	Password string `json:"password" validate:"required,max=72"`
	OTP      string `json:"otp" validate:"omitempty,otp"`
}

type profileRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=60"`
	Email *string `json:"email" validate:"omitempty,email,max=100"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required,max=72"`
	NewPassword string `json:"newPassword" validate:"required,max=64"`
}

// bind decodes the JSON body into dst and validates it.
func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return domain.Invalid("", "malformed request body")
	}
	return validate.Struct(dst)
}
