package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/oumpowerman/thaoshare/engine"
	"github.com/oumpowerman/thaoshare/metrics"
	"github.com/oumpowerman/thaoshare/models"
	"github.com/oumpowerman/thaoshare/providers"
	"github.com/oumpowerman/thaoshare/repository"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Slip struct {
	Filename    string
	ContentType string
	Data        []byte
}

type SubmitPaymentInput struct {
	CircleID string
	MemberID string
	Amount   decimal.Decimal
	Slip     *Slip
}

type PaymentService struct {
	store    Store
	uploader providers.SlipUploader
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      clock
}

func NewPaymentService(store Store, uploader providers.SlipUploader, m *metrics.Metrics, logger *slog.Logger) *PaymentService {
	return &PaymentService{store: store, uploader: uploader, metrics: m, logger: logger, now: systemClock}
}

// Submit records a member's payment for the circle's current round. A
// finished circle takes the payment with round 0.
func (s *PaymentService) Submit(ctx context.Context, in SubmitPaymentInput) (models.Transaction, error) {
	ctx, span := tracer.Start(ctx, "payment.submit", trace.WithAttributes(
		attribute.String("circle.id", in.CircleID),
		attribute.String("member.id", in.MemberID),
	))
	defer span.End()

	tx, err := s.submit(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return models.Transaction{}, err
	}
	if s.metrics != nil {
		s.metrics.Payments.WithLabelValues(string(tx.Status)).Inc()
	}
	return tx, nil
}

func (s *PaymentService) submit(ctx context.Context, in SubmitPaymentInput) (models.Transaction, error) {
	if !in.Amount.IsPositive() {
		return models.Transaction{}, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	circle, err := s.store.GetCircle(ctx, in.CircleID)
	if err != nil {
		return models.Transaction{}, err
	}
	slot, ok := circle.Membership(in.MemberID)
	if !ok {
		return models.Transaction{}, ErrNotMember
	}

	now := s.now()
	round := 0
	expected := decimal.Zero
	// round 0 has no due date, so it is never LATE
	var due time.Time
	if open, ok := circle.OpenRound(); ok {
		round = open.RoundNumber
		expected = engine.CurrentObligation(circle, slot)
		due = circle.NextDueDate
	}

	var slipURL string
	if in.Slip != nil && len(in.Slip.Data) > 0 {
		contentType, ext, err := detectSlip(in.Slip.Data)
		if err != nil {
			return models.Transaction{}, err
		}
		name := path.Join("slips", circle.ID, fmt.Sprint(round),
			fmt.Sprintf("%s-%d%s", in.MemberID, now.UnixNano(), ext))
		slipURL, err = s.uploader.Upload(ctx, name, contentType, in.Slip.Data)
		if err != nil {
			return models.Transaction{}, &repository.StorageError{Op: "upload slip", Err: err}
		}
	}

	tx := models.Transaction{
		CircleID:       circle.ID,
		RoundNumber:    round,
		MemberID:       in.MemberID,
		AmountExpected: expected,
		AmountPaid:     in.Amount,
		Status:         engine.PaymentStatusFor(expected, in.Amount, due, now),
		SlipURL:        slipURL,
		Timestamp:      now,
	}
	if err := s.store.CreateTransaction(ctx, &tx); err != nil {
		return models.Transaction{}, err
	}
	s.logger.Info("payment recorded",
		"circle", circle.ID, "round", round, "member", in.MemberID,
		"paid", in.Amount.String(), "expected", expected.String(), "status", tx.Status)
	return tx, nil
}

var slipExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

// detectSlip sniffs the image type from the bytes; the client's filename and
// content type are ignored.
func detectSlip(data []byte) (contentType, ext string, err error) {
	contentType = http.DetectContentType(data)
	if isHEIC(data) {
		contentType = "image/heic"
	}
	ext, ok := slipExtensions[contentType]
	if !ok {
		return "", "", fmt.Errorf("%w: got %s", ErrInvalidSlip, contentType)
	}
	return contentType, ext, nil
}

func isHEIC(data []byte) bool {
	if len(data) < 12 || !bytes.Equal(data[4:8], []byte("ftyp")) {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "mif1", "msf1":
		return true
	}
	return false
}

func (s *PaymentService) List(ctx context.Context, f repository.TransactionFilter) ([]models.Transaction, error) {
	return s.store.ListTransactions(ctx, f)
}

func (s *PaymentService) Collection(ctx context.Context, circleID string) (engine.Collection, error) {
	circle, err := s.store.GetCircle(ctx, circleID)
	if err != nil {
		return engine.Collection{}, err
	}
	members, err := s.store.ListMembers(ctx)
	if err != nil {
		return engine.Collection{}, err
	}
	txs, err := s.store.ListTransactions(ctx, repository.TransactionFilter{CircleID: circleID})
	if err != nil {
		return engine.Collection{}, err
	}
	return engine.BuildCollection(circle, members, txs), nil
}

func (s *PaymentService) Reconcile(ctx context.Context, circleID string, round int) ([]engine.ReconciliationRow, error) {
	circle, err := s.store.GetCircle(ctx, circleID)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.ListTransactions(ctx, repository.TransactionFilter{CircleID: circleID})
	if err != nil {
		return nil, err
	}
	return engine.Reconcile(circle, round, txs)
}
