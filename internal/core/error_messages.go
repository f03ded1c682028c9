package core

// error_messages.go maps technical errors to messages shown in the upload UI.
//
// # Error Codes Reference
//
// Users can quote the code to support staff. Codes are grouped by category:
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	          Patterns: "file too large"
//	FILE002 - Unsupported format (only .vi2, .xls, .xlsx are parsed)
//	          Patterns: "unsupported file format"
//	FILE003 - Empty file
//	          Patterns: "empty file"
//	FILE004 - No file selected
//	          Patterns: "no file provided"
//
// # Parse Errors (PRS001-PRS099)
//
//	PRS001 - File contains no measurements
//	         Patterns: "no measurements"
//	PRS002 - Measurement file could not be parsed
//	         Patterns: "parse failed"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Placement incomplete (project, object, zone, level)
//	         Patterns: "invalid placement"
//	REQ002 - Missing x-user-id header
//	         Patterns: "missing user id"
//	REQ003 - Bad paging parameters
//	         Patterns: "invalid page"
//	REQ004 - Request cancelled
//	         Patterns: "context canceled"
//	REQ005 - Request timed out
//	         Patterns: "context deadline exceeded"
//	REQ006 - Ingest slots exhausted
//	         Patterns: "too many concurrent uploads"
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key
//	        Patterns: "duplicate key", "violates unique"
//	DB002 - Foreign key violation (details still reference a summary)
//	        Patterns: "violates foreign key"
//	DB003 - Connection refused
//	        Patterns: "connection refused"
//	DB004 - Connection reset
//	        Patterns: "connection reset"
//	DB005 - Timeout
//	        Patterns: "timeout"
//	DB006 - Deadlock
//	        Patterns: "deadlock"
//	DB007 - Upload record not found
//	        Patterns: "summary not found", "no rows in result set"
//
// # Storage Errors (STO001-STO099)
//
//	STO001 - Attachment storage not configured
//	         Patterns: "attachment storage disabled"
//	STO002 - Attachment could not be stored
//	         Patterns: "attachment upload"
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check application logs for the
// original technical error.
//
// # Pattern Matching
//
// Patterns are matched case-insensitively with strings.Contains against
// the full wrapped error text. The first match wins, so specific patterns
// come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "Файл превышает допустимый размер",
			Action:  "Загрузите файл размером не более 10 МБ",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "Неподдерживаемый формат файла",
			Action:  "Загрузите файл .vi2, .xls или .xlsx",
			Code:    "FILE002",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "Файл пуст",
			Action:  "Проверьте, что выгрузка логгера завершилась",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "Файл не выбран",
			Action:  "Выберите файл логгера для загрузки",
			Code:    "FILE004",
		},
	},

	// =========================================================================
	// Parse Errors
	// =========================================================================
	{
		pattern: "no measurements",
		msg: UserMessage{
			Message: "Файл не содержит измерений",
			Action:  "Проверьте, что файл выгружен из ПО логгера целиком",
			Code:    "PRS001",
		},
	},
	{
		pattern: "parse failed",
		msg: UserMessage{
			Message: "Не удалось разобрать файл",
			Action:  "Проверьте формат файла или выгрузите его повторно",
			Code:    "PRS002",
		},
	},

	// =========================================================================
	// Request Errors
	// =========================================================================
	{
		pattern: "invalid placement",
		msg: UserMessage{
			Message: "Не указано размещение логгера",
			Action:  "Укажите проект, объект квалификации, зону и уровень",
			Code:    "REQ001",
		},
	},
	{
		pattern: "missing user id",
		msg: UserMessage{
			Message: "Не указан пользователь",
			Action:  "Войдите в систему и повторите попытку",
			Code:    "REQ002",
		},
	},
	{
		pattern: "invalid page",
		msg: UserMessage{
			Message: "Некорректные параметры страницы",
			Action:  "Проверьте номер и размер страницы",
			Code:    "REQ003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Запрос был отменён",
			Action:  "Повторите попытку",
			Code:    "REQ004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Превышено время ожидания запроса",
			Action:  "Повторите попытку позже",
			Code:    "REQ005",
		},
	},
	{
		pattern: "too many concurrent uploads",
		msg: UserMessage{
			Message: "Сервер обрабатывает слишком много файлов",
			Action:  "Повторите загрузку через минуту",
			Code:    "REQ006",
		},
	},

	// =========================================================================
	// Database Errors
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "Такая запись уже существует",
			Action:  "Обновите страницу и повторите загрузку",
			Code:    "DB001",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "Такая запись уже существует",
			Action:  "Обновите страницу и повторите загрузку",
			Code:    "DB001",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "Запись связана с другими данными",
			Action:  "Сначала удалите связанные измерения",
			Code:    "DB002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Нет соединения с базой данных",
			Action:  "Повторите попытку через несколько минут",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Соединение с базой данных прервано",
			Action:  "Повторите попытку",
			Code:    "DB004",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Превышено время ожидания базы данных",
			Action:  "Повторите попытку позже",
			Code:    "DB005",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "База данных занята",
			Action:  "Повторите попытку",
			Code:    "DB006",
		},
	},
	{
		pattern: "summary not found",
		msg: UserMessage{
			Message: "Загрузка не найдена",
			Action:  "Обновите список загрузок",
			Code:    "DB007",
		},
	},
	{
		pattern: "no rows in result set",
		msg: UserMessage{
			Message: "Загрузка не найдена",
			Action:  "Обновите список загрузок",
			Code:    "DB007",
		},
	},

	// =========================================================================
	// Storage Errors
	// =========================================================================
	{
		pattern: "attachment storage disabled",
		msg: UserMessage{
			Message: "Хранилище вложений не настроено",
			Action:  "Обратитесь к администратору",
			Code:    "STO001",
		},
	},
	{
		pattern: "attachment upload",
		msg: UserMessage{
			Message: "Не удалось сохранить файл в хранилище",
			Action:  "Повторите загрузку позже",
			Code:    "STO002",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "Произошла непредвиденная ошибка",
	Action:  "Повторите попытку или обратитесь в поддержку",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// The first matching pattern wins; unknown errors map to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
