package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wishyoulucky/internal/domain"
	"wishyoulucky/internal/mailer"
	"wishyoulucky/internal/pkg/clock"
	"wishyoulucky/internal/repository"

	"go.uber.org/zap"
)

var ErrNoRecipients = errors.New("no customers have ordered this sku")

// ProductNoticeSender delivers one product notice and returns the provider id.
type ProductNoticeSender interface {
	SendProductNotice(ctx context.Context, n mailer.ProductNotice) (string, error)
}

type ProductNoticeInput struct {
	SKU     string `json:"sku"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type ProductNoticeResult struct {
	SKU        string `json:"sku"`
	Recipients int    `json:"recipients"`
	Sent       int    `json:"sent"`
	Failed     int    `json:"failed"`
}

// ProductNoticeService emails everyone who ordered a SKU and logs each send.
type ProductNoticeService interface {
	NotifyBuyers(ctx context.Context, input ProductNoticeInput) (*ProductNoticeResult, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.Notification, error)
}

type productNoticeService struct {
	repo   repository.NotificationRepository
	sender ProductNoticeSender
	clock  clock.Clock
	logger *zap.Logger
}

func NewProductNoticeService(
	repo repository.NotificationRepository,
	sender ProductNoticeSender,
	clk clock.Clock,
	logger *zap.Logger,
) ProductNoticeService {
	return &productNoticeService{repo: repo, sender: sender, clock: clk, logger: logger}
}

func validateNotice(input *ProductNoticeInput) error {
	input.SKU = strings.TrimSpace(input.SKU)
	input.Subject = strings.TrimSpace(input.Subject)
	input.Message = strings.TrimSpace(input.Message)

	var errs ValidationErrors
	if input.SKU == "" {
		errs.add("sku", "This field is required")
	}
	if input.Subject == "" {
		errs.add("subject", "This field is required")
	}
	if input.Message == "" {
		errs.add("message", "This field is required")
	}
	return errs.orNil()
}

// NotifyBuyers sends one email per distinct customer. A failed send is
// recorded and counted; it does not stop the remaining sends.
func (s *productNoticeService) NotifyBuyers(ctx context.Context, input ProductNoticeInput) (*ProductNoticeResult, error) {
	if err := validateNotice(&input); err != nil {
		return nil, err
	}

	recipients, err := s.repo.RecipientsForSKU(ctx, input.SKU)
	if err != nil {
		return nil, fmt.Errorf("failed to find recipients: %w", err)
	}
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}

	result := &ProductNoticeResult{SKU: input.SKU, Recipients: len(recipients)}
	for _, email := range recipients {
		record := s.send(ctx, email, input)
		if record.Status == domain.NotificationSent {
			result.Sent++
		} else {
			result.Failed++
		}
		if err := s.repo.Create(ctx, record); err != nil {
			s.logger.Error("Failed to record notification",
				zap.String("sku", input.SKU),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Product notice sent",
		zap.String("sku", input.SKU),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *productNoticeService) send(ctx context.Context, email string, input ProductNoticeInput) *domain.Notification {
	record := &domain.Notification{
		Type:           domain.NotificationTypeProduct,
		RecipientEmail: email,
		Subject:        input.Subject,
		Message:        input.Message,
		ProductSKU:     input.SKU,
	}

	sendCtx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	id, err := s.sender.SendProductNotice(sendCtx, mailer.ProductNotice{
		To:      email,
		SKU:     input.SKU,
		Subject: input.Subject,
		Message: input.Message,
	})
	if err != nil {
		record.Status = domain.NotificationFailed
		record.Error = err.Error()
		return record
	}

	sentAt := s.clock.Now().UTC().Truncate(time.Second)
	record.Status = domain.NotificationSent
	record.ProviderMessageID = id
	record.SentAt = &sentAt
	return record
}

func (s *productNoticeService) ListRecent(ctx context.Context, limit int) ([]*domain.Notification, error) {
	return s.repo.ListByType(ctx, domain.NotificationTypeProduct, limit)
}
