// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков.
package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status: статус запроса ("OK" или "Error").
// Поле Error: текст ошибки (при неуспехе).
// Поле Issues: ошибки валидации по полям.
// Поле Data: данные ответа (при успехе).
type Response struct {
	Status string  `json:"status"`
	Error  string  `json:"error,omitempty"`
	Issues []Issue `json:"issues,omitempty"`
	Data   any     `json:"data,omitempty"`
}

// Issue одно нарушение схемы: путь к полю и причина.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

const (
	// StatusOK значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение попадает в Issues, а их тексты объединяются через запятую в Error.
func ValidationError(errs validator.ValidationErrors) Response {
	issues := Issues(errs)
	msgs := make([]string, 0, len(issues))
	for _, is := range issues {
		msgs = append(msgs, is.Message)
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(msgs, ", "),
		Issues: issues,
	}
}

// Issues переводит ошибки валидатора в список Issue.
func Issues(errs validator.ValidationErrors) []Issue {
	issues := make([]Issue, 0, len(errs))
	for _, err := range errs {
		path := fieldPath(err)
		var msg string
		switch err.ActualTag() {
		case "required":
			msg = fmt.Sprintf("field %s is a required field", path)
		case "email":
			msg = fmt.Sprintf("field %s must be a valid email", path)
		case "min":
			msg = fmt.Sprintf("field %s must be at least %s characters", path, err.Param())
		case "max":
			msg = fmt.Sprintf("field %s must be at most %s characters", path, err.Param())
		case "oneof":
			msg = fmt.Sprintf("field %s must be one of [%s]", path, err.Param())
		case "numeric":
			msg = fmt.Sprintf("field %s can contain only numbers", path)
		case "uuid":
			msg = fmt.Sprintf("field %s can contain only uuid", path)
		default:
			msg = fmt.Sprintf("field %s is not a valid", path)
		}
		issues = append(issues, Issue{Path: path, Message: msg})
	}
	return issues
}

// fieldPath отбрасывает имя корневой структуры: "Candidate.body.email" → "body.email".
func fieldPath(err validator.FieldError) string {
	ns := err.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
