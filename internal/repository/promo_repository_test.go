package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/movie-rental/internal/model"
)

var promoCols = []string{"id", "code", "discount_type", "discount_value", "max_uses", "uses_count",
	"valid_from", "valid_to", "movie_id", "is_active", "created_at"}

func TestPromoRepo_GetByCodeNormalizes(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM promo_codes WHERE code = ?")).
		WithArgs("HALF50").
		WillReturnRows(sqlmock.NewRows(promoCols).
			AddRow("p-1", "HALF50", "percentage", int64(50), int64(10), int64(3), nil, nil, nil, true, created))

	p, err := NewPromoRepo(db).GetByCode(context.Background(), "  half50 ")
	if err != nil {
		t.Fatalf("GetByCode: %v", err)
	}
	if p.DiscountType != model.DiscountPercentage || *p.DiscountValue != 50 || *p.MaxUses != 10 || p.UsesCount != 3 {
		t.Errorf("unexpected promo %+v", p)
	}
	if p.MovieID != nil || p.ValidFrom != nil || p.ValidTo != nil {
		t.Errorf("null columns must stay nil: %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPromoRepo_GetByCodeNotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	mock.ExpectQuery("FROM promo_codes").WillReturnRows(sqlmock.NewRows(promoCols))

	if _, err := NewPromoRepo(db).GetByCode(context.Background(), "NOPE"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByCode = %v, want ErrNotFound", err)
	}
}

func TestPromoRepo_IncrementUsageIsGuarded(t *testing.T) {
	cases := []struct {
		name     string
		affected int64
		state    *sqlmock.Rows
		want     error
	}{
		{"consumed", 1, nil, nil},
		{"cap reached", 0, sqlmock.NewRows([]string{"is_active"}).AddRow(true), ErrPromoExhausted},
		{"deactivated", 0, sqlmock.NewRows([]string{"is_active"}).AddRow(false), ErrPromoInactive},
		{"deleted", 0, sqlmock.NewRows([]string{"is_active"}), ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, _ := sqlmock.New()
			defer db.Close()
			mock.ExpectExec(regexp.QuoteMeta("SET uses_count = uses_count + 1") + `\s+WHERE id = \? AND is_active = 1 AND \(max_uses IS NULL OR uses_count < max_uses\)`).
				WithArgs("p-1").
				WillReturnResult(sqlmock.NewResult(0, tc.affected))
			if tc.state != nil {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT is_active FROM promo_codes WHERE id = ?")).
					WithArgs("p-1").
					WillReturnRows(tc.state)
			}

			err := NewPromoRepo(db).IncrementUsage(context.Background(), "p-1")
			if !errors.Is(err, tc.want) {
				t.Errorf("IncrementUsage = %v, want %v", err, tc.want)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestPromoRepo_CreateStoresNormalizedCode(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	movieID := "m-1"
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO promo_codes (id, code, discount_type, discount_value, max_uses, uses_count, valid_from, valid_to, movie_id, is_active, created_at)")).
		WithArgs(sqlmock.AnyArg(), "LAUNCH", "free", nil, nil, nil, nil, "m-1", true, created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := &model.PromoCode{Code: " launch ", DiscountType: model.DiscountFree, MovieID: &movieID, IsActive: true, CreatedAt: created}
	if err := NewPromoRepo(db).Create(context.Background(), p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Code != "LAUNCH" || p.ID == "" {
		t.Errorf("promo = %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPromoRepo_CreateDuplicateIsConflict(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()
	mock.ExpectExec("INSERT INTO promo_codes").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'HALF50' for key 'code'"})

	p := &model.PromoCode{Code: "HALF50", DiscountType: model.DiscountPercentage, DiscountValue: i64(50), IsActive: true}
	if err := NewPromoRepo(db).Create(context.Background(), p); !errors.Is(err, ErrConflict) {
		t.Errorf("Create = %v, want ErrConflict", err)
	}
}
