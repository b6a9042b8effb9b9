// Package validaterequest содержит middleware, которое проверяет тело запроса, файлы
// и cookies по схеме до того, как запрос попадёт в обработчик.
//
// Ошибки схемы не обрабатываются на месте, а передаются в ErrorHandler.
// При успехе следующий обработчик вызывается ровно один раз с нетронутым запросом.
package validaterequest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/dealer-users/internal/http/apierror"
	"github.com/magabrotheeeer/dealer-users/internal/lib/sl"
	"github.com/magabrotheeeer/dealer-users/internal/metrics"
)

const (
	maxBodyBytes      = 1 << 20
	maxMultipartBytes = 32 << 20
	singleFileField   = "file"
)

// FileInfo метаданные загруженного файла.
type FileInfo struct {
	FieldName   string `json:"fieldname"`
	Filename    string `json:"originalname"`
	ContentType string `json:"mimetype"`
	Size        int64  `json:"size"`
}

// Candidate то, что проверяется схемой.
type Candidate struct {
	Body    json.RawMessage   `json:"body,omitempty"`
	Files   []FileInfo        `json:"files,omitempty"`
	File    *FileInfo         `json:"file,omitempty"`
	Cookies map[string]string `json:"cookies,omitempty"`
}

// Schema проверяет кандидата. Ошибки полей возвращаются как *apierror.ValidationError.
type Schema interface {
	Validate(c Candidate) error
}

// ErrorHandler централизованный обработчик ошибок запроса.
type ErrorHandler interface {
	Handle(w http.ResponseWriter, r *http.Request, err error)
}

// New возвращает middleware, проверяющее запрос по schema.
// m может быть nil.
func New(log *slog.Logger, schema Schema, errs ErrorHandler, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "validaterequest.Middleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			c, err := buildCandidate(r)
			if err != nil {
				log.Error("failed to read request", sl.Err(err))
				errs.Handle(w, r, apierror.BadRequest("invalid request body", err))
				return
			}
			log.Debug("request body", slog.String("body", string(c.Body)))

			if err := schema.Validate(c); err != nil {
				log.Info("request validation failed", sl.Err(err))
				var vErr *apierror.ValidationError
				if errors.As(err, &vErr) {
					m.ValidationFailed(routeLabel(r))
				}
				errs.Handle(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func buildCandidate(r *http.Request) (Candidate, error) {
	var c Candidate
	if cookies := r.Cookies(); len(cookies) > 0 {
		c.Cookies = make(map[string]string, len(cookies))
		for _, ck := range cookies {
			c.Cookies[ck.Name] = ck.Value
		}
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return readMultipart(r, c)
	}

	if r.Body == nil || r.Body == http.NoBody {
		return c, nil
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	_ = r.Body.Close()
	if err != nil {
		return c, err
	}
	if len(raw) > maxBodyBytes {
		return c, fmt.Errorf("body exceeds %d bytes", maxBodyBytes)
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	if len(bytes.TrimSpace(raw)) == 0 {
		return c, nil
	}
	if !json.Valid(raw) {
		return c, errors.New("body is not valid JSON")
	}
	c.Body = raw
	return c, nil
}

// readMultipart разбирает форму. Разобранная форма остаётся в r.MultipartForm для обработчика.
func readMultipart(r *http.Request, c Candidate) (Candidate, error) {
	if err := r.ParseMultipartForm(maxMultipartBytes); err != nil {
		return c, err
	}
	fields := make(map[string]string, len(r.MultipartForm.Value))
	for k, v := range r.MultipartForm.Value {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return c, err
	}
	c.Body = body

	for field, headers := range r.MultipartForm.File {
		for _, fh := range headers {
			info := FileInfo{
				FieldName:   field,
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
			}
			c.Files = append(c.Files, info)
			if field == singleFileField && c.File == nil {
				f := info
				c.File = &f
			}
		}
	}
	return c, nil
}

func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// StructSchema проверяет кандидата тегами validate структуры T.
// Поля T сопоставляются с кандидатом по json-тегам: body, files, file, cookies.
type StructSchema[T any] struct {
	validate *validator.Validate
}

// Struct создаёт StructSchema. Пути в ошибках строятся по json-именам полей.
func Struct[T any]() *StructSchema[T] {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return &StructSchema[T]{validate: v}
}

// Validate реализует Schema.
func (s *StructSchema[T]) Validate(c Candidate) error {
	const op = "validaterequest.StructSchema.Validate"
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	var target T
	if err := json.Unmarshal(raw, &target); err != nil {
		return apierror.BadRequest("invalid request body", err)
	}

	if err := s.validate.Struct(target); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			return &apierror.ValidationError{Errs: vErrs}
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
