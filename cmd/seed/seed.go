package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cdomain "github.com/corvusHold/rentmail/internal/contracts/domain"
	udomain "github.com/corvusHold/rentmail/internal/users/domain"
)

var (
	firstNames = []string{"Aaliyah", "Brandon", "Celine", "Dwayne", "Esther", "Farid", "Gabrielle", "Hassan", "Imani", "Jerome"}
	lastNames  = []string{"Ali", "Baptiste", "Charles", "Davis", "Edwards", "Francis", "Garcia", "Henry", "Isaac", "James"}
	fleet      = []cdomain.Car{
		{CarLicenseNo: "PDK 4821", CarMake: "Toyota", CarModel: "Yaris", CarColor: "White", CarMonthlyRate: decimal.NewFromInt(5400), CarDailyRate: decimal.NewFromInt(250)},
		{CarLicenseNo: "PCW 1177", CarMake: "Nissan", CarModel: "Note", CarColor: "Silver", CarMonthlyRate: decimal.NewFromInt(4800), CarDailyRate: decimal.NewFromInt(220)},
		{CarLicenseNo: "PDF 9033", CarMake: "Hyundai", CarModel: "Tucson", CarColor: "Black", CarMonthlyRate: decimal.NewFromInt(7800), CarDailyRate: decimal.NewFromInt(350)},
		{CarLicenseNo: "PCZ 2210", CarMake: "Kia", CarModel: "Sportage", CarColor: "Blue", CarMonthlyRate: decimal.NewFromInt(7500), CarDailyRate: decimal.NewFromInt(340)},
	}
)

func userFromFlags(uid, email, first, last, typ string) (udomain.AppUser, error) {
	if strings.TrimSpace(email) == "" {
		return udomain.AppUser{}, errors.New("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return udomain.AppUser{}, fmt.Errorf("invalid email: %w", err)
	}
	t := udomain.UserType(strings.ToLower(strings.TrimSpace(typ)))
	if t != udomain.TypeAdmin && t != udomain.TypeCustomer {
		return udomain.AppUser{}, fmt.Errorf("invalid type %q (want admin or customer)", typ)
	}
	if strings.TrimSpace(uid) == "" {
		uid = uuid.NewString()
	}
	return udomain.AppUser{UID: uid, Email: email, FirstName: first, LastName: last, Type: t}, nil
}

// ensureUser upserts u and reports whether it did not exist before.
func ensureUser(ctx context.Context, repo udomain.Repository, u udomain.AppUser) (bool, error) {
	existing, err := repo.GetByID(ctx, u.UID)
	created := errors.Is(err, udomain.ErrNotFound)
	if err != nil && !created {
		return false, err
	}
	if !created {
		u.CreatedAt = existing.CreatedAt
	}
	if err := repo.Upsert(ctx, u); err != nil {
		return false, err
	}
	return created, nil
}

func dateStr(t time.Time) string { return t.Format("2006-01-02") }

func randTime(r *rand.Rand) string {
	return fmt.Sprintf("%02d:%02d", 8+r.Intn(13), []int{0, 15, 30, 45}[r.Intn(4)])
}

func randPhone(r *rand.Rand) string {
	return fmt.Sprintf("868-%03d-%04d", 200+r.Intn(800), r.Intn(10000))
}

// demoUsers returns one admin followed by n customers with driver profiles.
func demoUsers(n int, adminEmail, domain string, r *rand.Rand, now time.Time) []udomain.AppUser {
	out := []udomain.AppUser{{
		UID:       "seed-admin",
		Email:     adminEmail,
		FirstName: "Fleet",
		LastName:  "Admin",
		Type:      udomain.TypeAdmin,
		CreatedAt: now,
	}}
	for i := 0; i < n; i++ {
		first := firstNames[r.Intn(len(firstNames))]
		last := lastNames[r.Intn(len(lastNames))]
		issued := now.AddDate(-1-r.Intn(5), 0, 0)
		out = append(out, udomain.AppUser{
			UID:       fmt.Sprintf("seed-customer-%02d", i+1),
			Email:     fmt.Sprintf("%s.%s%d@%s", strings.ToLower(first), strings.ToLower(last), i+1, domain),
			FirstName: first,
			LastName:  last,
			Type:      udomain.TypeCustomer,
			CreatedAt: now,
			Profile: &udomain.CustomerProfile{
				PermitNumber: fmt.Sprintf("DP%06d", r.Intn(1000000)),
				Phone:        randPhone(r),
				IssueDate:    dateStr(issued),
				ExpiryDate:   dateStr(issued.AddDate(5, 0, 0)),
				BirthDate:    dateStr(now.AddDate(-21-r.Intn(40), -r.Intn(12), 0)),
				Address:      fmt.Sprintf("%d Ariapita Avenue, Port of Spain", 1+r.Intn(200)),
			},
		})
	}
	return out
}

// sampleContract builds a plausible submission for uid renting from the demo fleet.
func sampleContract(uid string, r *rand.Rand, now time.Time) cdomain.Contract {
	first := firstNames[r.Intn(len(firstNames))]
	last := lastNames[r.Intn(len(lastNames))]
	out := now.AddDate(0, 0, -r.Intn(30))
	due := out.AddDate(0, 0, 1+r.Intn(14))
	c := cdomain.Contract{
		ID:                  strings.ReplaceAll(uuid.NewString(), "-", "")[:20],
		UserID:              uid,
		Name:                first + " " + last,
		PermitNumber:        fmt.Sprintf("DP%06d", r.Intn(1000000)),
		IssueDate:           dateStr(now.AddDate(-3, 0, 0)),
		ExpiryDate:          dateStr(now.AddDate(2, 0, 0)),
		BirthDate:           dateStr(now.AddDate(-30, 0, 0)),
		Address:             fmt.Sprintf("%d Western Main Road, Chaguaramas", 1+r.Intn(200)),
		Phone:               randPhone(r),
		CollisionAcceptance: r.Intn(2) == 0,
		Car:                 fleet[r.Intn(len(fleet))],
		DateOut:             dateStr(out),
		TimeOut:             randTime(r),
		DateDue:             dateStr(due),
		TimeIn:              randTime(r),
		DateCreated:         now.UTC().Format(time.RFC3339),
		ReturnLocation:      "Piarco International Airport",
	}
	if r.Intn(3) == 0 {
		c.AdditionalCars = []cdomain.Car{fleet[r.Intn(len(fleet))]}
	}
	return c
}
