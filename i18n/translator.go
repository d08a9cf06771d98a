package i18n

import "strings"

// Translator retrieves localized messages for error codes.
// data provides optional metadata to embed in the message (for example,
// "field" or "expression").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	var msg string
	switch t.lang {
	case "ja":
		switch code {
		case "EMPTY_ENUM_INTERSECTION":
			msg = "enum の共通部分が空です"
		case "CONST_CONFLICT":
			msg = "const の値が競合しています"
		case "INVALID_RANGE":
			msg = "範囲制約が矛盾しています"
		case "INCOMPATIBLE_TYPE":
			msg = "allOf の型が互換ではありません"
		case "INVALID_EXPRESSION":
			msg = "式が不正です"
		case "OBSERVED_VALUES":
			msg = "watch には文字列または文字列の配列を指定してください"
		case "INVALID_ARRAY_SCHEMA":
			msg = "配列スキーマが不正です"
		case "INVALID_SCHEMA":
			msg = "スキーマが不正です"
		case "DUPLICATE_KEY":
			msg = "キーが重複しています"
		}
	default: // "en"
		switch code {
		case "EMPTY_ENUM_INTERSECTION":
			msg = "enum intersection is empty"
		case "CONST_CONFLICT":
			msg = "conflicting const values"
		case "INVALID_RANGE":
			msg = "unsatisfiable range constraints"
		case "INCOMPATIBLE_TYPE":
			msg = "incompatible allOf types"
		case "INVALID_EXPRESSION":
			msg = "invalid expression"
		case "OBSERVED_VALUES":
			msg = "watch must be a string or an array of strings"
		case "INVALID_ARRAY_SCHEMA":
			msg = "invalid array schema"
		case "INVALID_SCHEMA":
			msg = "invalid schema"
		case "DUPLICATE_KEY":
			msg = "duplicate key"
		}
	}
	if msg == "" {
		return code
	}
	if f := data["field"]; f != "" {
		msg += " (" + f + ")"
	}
	return msg
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	lang = strings.ToLower(lang)
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
