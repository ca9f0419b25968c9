package models

import "time"

const (
	OrderPending  = "pending"
	OrderPaid     = "paid"
	OrderCanceled = "canceled"

	PaymentPending   = "pending"
	PaymentSucceeded = "succeeded"
	PaymentFailed    = "failed"
)

type Admin struct {
	ID           uint      `gorm:"primaryKey" json:"admin_id"`
	Username     string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Product struct {
	ID            uint    `gorm:"primaryKey" json:"product_id"`
	Name          string  `gorm:"not null" json:"name"`
	Description   string  `json:"description"`
	Price         float64 `gorm:"type:numeric(10,2);not null" json:"price"`
	StockQuantity int     `gorm:"not null;default:0" json:"stock_quantity"`
	ImageURL      string  `json:"image_url"`
}

func (Product) TableName() string { return "headphones" }

type CartSession struct {
	ID             uint      `gorm:"primaryKey" json:"session_id"`
	UserIdentifier string    `gorm:"size:128;uniqueIndex;not null" json:"user_identifier"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Items []CartItem `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
}

type CartItem struct {
	ID        uint `gorm:"primaryKey" json:"cart_item_id"`
	SessionID uint `gorm:"not null;uniqueIndex:idx_cart_line" json:"session_id"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_cart_line" json:"product_id"`
	Quantity  int  `gorm:"not null" json:"quantity"`
}

// CartLine is a cart item joined with the display fields of its product.
type CartLine struct {
	CartItemID    uint    `json:"cart_item_id"`
	ProductID     uint    `json:"product_id"`
	Quantity      int     `json:"quantity"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	StockQuantity int     `json:"stock_quantity"`
	ImageURL      string  `json:"image_url"`
}

type Order struct {
	ID              uint      `gorm:"primaryKey" json:"order_id"`
	PaymentIntentID string    `gorm:"size:255;uniqueIndex;not null" json:"payment_intent_id"`
	CartSessionID   *uint     `json:"cart_session_id,omitempty"`
	TotalAmount     int64     `gorm:"not null" json:"total_amount"`
	Currency        string    `gorm:"size:3;not null" json:"currency"`
	Status          string    `gorm:"size:16;not null;default:pending" json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Items   []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"-"`
	Payment *Payment    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"-"`
}

type OrderItem struct {
	ID        uint    `gorm:"primaryKey" json:"order_item_id"`
	OrderID   uint    `gorm:"not null;index" json:"order_id"`
	ProductID uint    `gorm:"not null" json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `gorm:"type:numeric(10,2);not null" json:"price"`
	Quantity  int     `gorm:"not null" json:"quantity"`
}

type Payment struct {
	ID            uint       `gorm:"primaryKey" json:"payment_id"`
	OrderID       uint       `gorm:"uniqueIndex;not null" json:"order_id"`
	PaymentStatus string     `gorm:"size:16;not null;default:pending" json:"payment_status"`
	PaymentDate   *time.Time `json:"payment_date"`
}

type ContactMessage struct {
	ID            uint       `gorm:"primaryKey" json:"message_id"`
	Name          string     `json:"name"`
	Email         string     `gorm:"not null" json:"email"`
	Message       string     `gorm:"type:text;not null" json:"message"`
	MessageDate   time.Time  `gorm:"not null" json:"message_date"`
	Status        string     `gorm:"size:16;not null;default:UNREAD;index" json:"status"`
	AdminResponse *string    `gorm:"type:text" json:"admin_response"`
	RespondedAt   *time.Time `json:"responded_at"`
}

func (ContactMessage) TableName() string { return "contact_message" }

// All lists every table the service owns, in dependency order.
func All() []any {
	return []any{
		&Admin{},
		&Product{},
		&CartSession{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&Payment{},
		&ContactMessage{},
	}
}
