package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/mikey/contact-guard/internal/core"
	"go.uber.org/zap"
)

const (
	msgMissingFields = "全ての項目を入力してください"
	msgTooLong       = "入力内容が長すぎます"
	msgInvalidEmail  = "有効なメールアドレスを入力してください"
	msgBadRequest    = "リクエストの形式が正しくありません"
	msgSpamDetected  = "送信内容に問題が検出されました"
	msgSaveFailed    = "データの保存に失敗しました。しばらく後でもう一度お試しください。"
	msgAccepted      = "お問い合わせを受け付けました。ありがとうございます。"

	notifyTimeout = 30 * time.Second
)

type contactRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,max=200,contactemail"`
	Message  string `json:"message" validate:"required,max=2000"`
	Honeypot string `json:"honeypot"`
}

type contactResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	NotionID string `json:"notionId,omitempty"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("contactemail", func(fl validator.FieldLevel) bool {
		return core.ValidEmail(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("httpapi: registering contactemail validation: %v", err))
	}
	return v
}

// validationMessage picks the user-facing message for the most basic failure
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return msgBadRequest
	}

	tooLong, badEmail := false, false
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			return msgMissingFields
		case "max":
			tooLong = true
		case "contactemail":
			badEmail = true
		}
	}
	if tooLong {
		return msgTooLong
	}
	if badEmail {
		return msgInvalidEmail
	}
	return msgBadRequest
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	s.logger.Info("Contact form submission started")

	if s.cfg.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}

	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("Malformed contact request", zap.Error(err))
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}

	if err := s.validate.Struct(&req); err != nil {
		msg := validationMessage(err)
		s.logger.Warn("Validation failed",
			zap.String("reason", msg),
			zap.Int("name_length", utf8.RuneCountInString(req.Name)),
			zap.Int("email_length", utf8.RuneCountInString(req.Email)),
			zap.Int("message_length", utf8.RuneCountInString(req.Message)))
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	submission := &core.Submission{
		Name:           req.Name,
		Email:          req.Email,
		Message:        req.Message,
		Honeypot:       req.Honeypot,
		ClientIdentity: ClientIP(r, s.cfg.TrustProxyHeaders),
	}

	verdict := s.guard.Check(ctx, submission)
	s.metrics.ObserveVerdict(verdict)

	if !verdict.Allow {
		if verdict.IsSpam {
			s.logger.Warn("Spam detected",
				zap.Int("score", verdict.Score),
				zap.String("confidence", string(verdict.Confidence)),
				zap.Int("reason_count", len(verdict.Reasons)))
			writeError(w, http.StatusTooManyRequests, msgSpamDetected)
			return
		}

		s.logger.Warn("Rate limit exceeded", zap.Strings("reasons", verdict.Reasons))
		writeError(w, http.StatusTooManyRequests, verdict.Reasons[0])
		return
	}

	result, err := s.sink.Save(ctx, submission, verdict.Score)
	s.metrics.ObserveSinkWrite(s.sink.Name(), err)
	if err != nil {
		s.logger.Error("Failed to save submission",
			zap.String("sink", s.sink.Name()),
			zap.Error(err),
			zap.Int("spam_score", verdict.Score))
		writeError(w, http.StatusInternalServerError, msgSaveFailed)
		return
	}

	s.notifyOwner(submission, result)

	s.logger.Info("Contact form submission completed successfully",
		zap.String("id", result.ID),
		zap.Int("spam_score", verdict.Score),
		zap.Int64("response_ms", elapsedMs(start)),
		zap.Int("message_length", utf8.RuneCountInString(req.Message)))

	writeJSON(w, http.StatusOK, contactResponse{
		Success:  true,
		Message:  msgAccepted,
		NotionID: result.ID,
	})
}

// notifyOwner sends the owner notification off the request path
func (s *Server) notifyOwner(submission *core.Submission, result *core.SaveResult) {
	if s.notifier == nil {
		return
	}

	s.background.Add(1)
	go func() {
		defer s.background.Done()

		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := s.notifier.Notify(ctx, submission, result); err != nil {
			s.logger.Error("Failed to send owner notification", zap.Error(err))
		}
	}()
}
