package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"soil_monitor/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

var readingColumns = []string{"id", "dev_eui", "ts", "relay_time", "temperature", "illuminance", "humidity", "counter", "debit", "voltage"}

func TestReadingSave_GeneratesIDAndFormatsTimestamp(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewReadingSQLite(db)

	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(insertReadingSQL)).
		WithArgs(sqlmock.AnyArg(), "78AF580300000485", "2024-01-01 10:00:00", "2024-01-01T10:00:00.000000+02:00",
			12.02, 26, 50, 20, 0.5, 300).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(ctx(t), models.SensorReading{
		DevEUI:      "78AF580300000485",
		Timestamp:   ts,
		Time:        "2024-01-01T10:00:00.000000+02:00",
		Temperature: 12.02,
		Illuminance: 26,
		Humidity:    50,
		Counter:     20,
		Debit:       0.5,
		Voltage:     300,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestReadingSave_DBError(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewReadingSQLite(db)

	mock.ExpectExec("INSERT INTO readings").WillReturnError(errors.New("disk full"))

	err := repo.Save(ctx(t), models.SensorReading{ID: "r1", DevEUI: "78AF580300000485", Timestamp: time.Now()})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestReadingRange_WithBounds(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewReadingSQLite(db)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(readingColumns).
		AddRow("r1", "78AF580300000485", at, "t1", 12.02, 26, 50, 20, 0.5, 300).
		AddRow("r2", "78AF580300000506", at.Add(time.Hour), "t2", 11.0, 1, 2, 3, 0.04, 3100)

	mock.ExpectQuery(regexp.QuoteMeta(selectReadingColumns + ` WHERE ts >= ? AND ts <= ? ORDER BY ts ASC`)).
		WithArgs("2024-01-01 00:00:00", "2024-01-02 00:00:00").
		WillReturnRows(rows)

	got, err := repo.Range(ctx(t), from, to)
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(got) != 2 || got[0].ID != "r1" || got[1].DevEUI != "78AF580300000506" {
		t.Fatalf("unexpected readings: %+v", got)
	}
	if got[0].Temperature != 12.02 || got[0].Voltage != 300 || !got[0].Timestamp.Equal(at) {
		t.Fatalf("unexpected first reading: %+v", got[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestReadingRange_NoBounds(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewReadingSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectReadingColumns + ` ORDER BY ts ASC`)).
		WillReturnRows(sqlmock.NewRows(readingColumns))

	got, err := repo.Range(ctx(t), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want empty, got %d", len(got))
	}
}

func TestReadingRange_ScanError(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewReadingSQLite(db)

	rows := sqlmock.NewRows(readingColumns).
		AddRow("r1", "78AF580300000485", "not a time", "t", 1.0, 1, 1, 1, 1.0, 1)
	mock.ExpectQuery("SELECT id, dev_eui").WillReturnRows(rows)

	if _, err := repo.Range(ctx(t), time.Time{}, time.Time{}); err == nil {
		t.Fatalf("expected scan error")
	}
}

func TestReadingDeleteWindow_ExclusiveBounds(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewReadingSQLite(db)

	point := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(deleteReadingsSQL)).
		WithArgs("2024-01-01 09:59:58", "2024-01-01 10:00:02").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteWindow(ctx(t), point, 2*time.Second)
	if err != nil {
		t.Fatalf("DeleteWindow: %v", err)
	}
	if n != 3 {
		t.Fatalf("deleted = %d, want 3", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestReadingLatest(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	repo := NewReadingSQLite(db)

	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	q := regexp.QuoteMeta(selectReadingColumns + ` WHERE dev_eui = ? ORDER BY ts DESC LIMIT 1`)
	mock.ExpectQuery(q).WithArgs("78AF580300000485").
		WillReturnRows(sqlmock.NewRows(readingColumns).AddRow("r9", "78AF580300000485", at, "t", 9.5, 1, 2, 3, 0.1, 2900))
	mock.ExpectQuery(q).WithArgs("78AF580300000506").
		WillReturnRows(sqlmock.NewRows(readingColumns))

	got, err := repo.Latest(ctx(t), "78AF580300000485")
	if err != nil || got == nil || got.ID != "r9" {
		t.Fatalf("Latest: %+v, %v", got, err)
	}
	none, err := repo.Latest(ctx(t), "78AF580300000506")
	if err != nil || none != nil {
		t.Fatalf("expected (nil, nil), got %+v, %v", none, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}
