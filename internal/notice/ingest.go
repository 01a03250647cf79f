package notice

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"go-notice-crawler/internal/dates"
	"go-notice-crawler/internal/models"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var (
	// ErrValidation means a required field is missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidDate means date_posted matched none of the known formats.
	ErrInvalidDate = errors.New("invalid date_posted")
)

// IngestRequest is a notice submitted from outside the crawler.
type IngestRequest struct {
	Title        string `json:"title" validate:"required"`
	Content      string `json:"content"`
	OriginalLink string `json:"original_link" validate:"required,http_url"`
	DatePosted   string `json:"date_posted" validate:"required"`
	SourceSchool string `json:"source_school" validate:"required"`
}

type IngestResult struct {
	Status Status        `json:"status"`
	Notice models.Notice `json:"notice"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Ingest validates req, normalizes its date and stores it. Submitting the same
// original_link again is not an error: the stored notice comes back with
// StatusAlreadyExists.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (IngestResult, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	req.OriginalLink = strings.TrimSpace(req.OriginalLink)
	req.DatePosted = strings.TrimSpace(req.DatePosted)
	req.SourceSchool = strings.TrimSpace(req.SourceSchool)

	if err := s.validate.Struct(req); err != nil {
		s.metrics.IngestResult("invalid")
		return IngestResult{}, validationError(err)
	}

	date, err := dates.Normalize(req.DatePosted)
	if err != nil {
		s.metrics.IngestResult("invalid")
		return IngestResult{}, fmt.Errorf("%w: %q is not a recognized date", ErrInvalidDate, req.DatePosted)
	}

	if req.Content == "" {
		req.Content = models.ContentNotFound
	}

	up, err := s.store.Upsert(ctx, models.NewNotice{
		Title:        req.Title,
		Content:      req.Content,
		OriginalLink: req.OriginalLink,
		DatePosted:   date,
		SourceSchool: req.SourceSchool,
	})
	if err != nil {
		s.metrics.IngestResult("error")
		s.logger.Error("❌ Failed to ingest notice", zap.String("link", req.OriginalLink), zap.Error(err))
		return IngestResult{}, err
	}

	res := IngestResult{Status: StatusAlreadyExists, Notice: up.Notice}
	if up.Created {
		res.Status = StatusCreated
		s.logger.Info("📥 Ingested notice", zap.Int64("id", up.Notice.ID), zap.String("school", up.Notice.SourceSchool))
	}
	s.metrics.IngestResult(string(res.Status))
	return res, nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "http_url":
			msgs = append(msgs, fe.Field()+" must be an absolute http(s) URL")
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}
