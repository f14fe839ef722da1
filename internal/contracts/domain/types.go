package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	edomain "github.com/corvusHold/rentmail/internal/email/domain"
)

// Driver is an additional driver listed on a contract.
type Driver struct {
	Name         string `json:"name"`
	PermitNumber string `json:"permitNumber"`
	IssueDate    string `json:"issueDate"`
	ExpiryDate   string `json:"expiryDate"`
	BirthDate    string `json:"birthDate"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
}

// Car is a vehicle rented alongside the primary one.
type Car struct {
	CarLicenseNo   string          `json:"carLicenseNo"`
	CarMake        string          `json:"carMake"`
	CarModel       string          `json:"carModel"`
	CarColor       string          `json:"carColor"`
	CarMonthlyRate decimal.Decimal `json:"carMonthlyRate"`
	CarDailyRate   decimal.Decimal `json:"carDailyRate"`
}

// Contract is a rental-agreement submission. Only UserID is enforced; every other
// field is passed through to the templates as submitted.
type Contract struct {
	ID     string `json:"id,omitempty"`
	UserID string `json:"userId" validate:"required"`

	// Primary driver
	Name         string `json:"name"`
	PermitNumber string `json:"permitNumber"`
	IssueDate    string `json:"issueDate"`
	ExpiryDate   string `json:"expiryDate"`
	BirthDate    string `json:"birthDate"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`

	AdditionalDrivers []Driver `json:"additionalDrivers,omitempty"`

	ForeignAddress  string `json:"foreignAddress,omitempty"`
	ForeignPhone    string `json:"foreignPhone,omitempty"`
	ForeignAddress2 string `json:"foreignAddress2,omitempty"`
	ForeignPhone2   string `json:"foreignPhone2,omitempty"`

	CompanyName  string `json:"companyName,omitempty"`
	CompanyPhone string `json:"companyPhone,omitempty"`

	CollisionAcceptance bool `json:"collisionAcceptance"`

	Car
	AdditionalCars []Car `json:"additionalCars,omitempty"`

	DateOut string `json:"dateOut"`
	TimeOut string `json:"timeOut"`
	DateDue string `json:"dateDue"`
	TimeIn  string `json:"timeIn"`

	Approved       bool             `json:"approved"`
	MileageIn      FlexInt          `json:"mileageIn,omitempty"`
	MileageOut     FlexInt          `json:"mileageOut,omitempty"`
	DateCreated    string           `json:"dateCreated,omitempty"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	NoOfDays       FlexInt          `json:"noOfDays,omitempty"`
	ReturnLocation string           `json:"returnLocation,omitempty"`
}

// Notifier sends the notification emails for a submitted contract.
type Notifier interface {
	// Submit emails every admin and then the customer.
	Submit(ctx context.Context, c Contract) error
	// SubmitWithAttachment emails the customer a contract summary with the file attached.
	SubmitWithAttachment(ctx context.Context, c Contract, file edomain.Attachment) error
}

var (
	ErrMissingUserID = errors.New("missing contract data or userId")
	ErrNoEmail       = errors.New("user has no email address")
)
