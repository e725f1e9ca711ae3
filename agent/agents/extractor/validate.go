package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/Chative-Order-Intake/agent/contract"
	statex "github.com/tanpawarit/Chative-Order-Intake/agent/state"
)

// ParseResult decodes model output into an ExtractionResult. Every rejection
// wraps contract.ErrSchemaViolation.
//
// Coercions: numeric strings for quantity_kg, scalars to text for text
// fields, blank text to null, duplicate missing_fields dropped.
func ParseResult(content string) (contractx.ExtractionResult, error) {
	body := stripCodeFence(content)
	if body == "" {
		return contractx.ExtractionResult{}, fmt.Errorf("%w: empty response", contractx.ErrSchemaViolation)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return contractx.ExtractionResult{}, fmt.Errorf("%w: not a json object: %v", contractx.ErrSchemaViolation, err)
	}
	if raw == nil {
		return contractx.ExtractionResult{}, fmt.Errorf("%w: response is null", contractx.ErrSchemaViolation)
	}

	var (
		res contractx.ExtractionResult
		err error
	)

	if res.QuantityKg, err = parseQuantity(raw[string(statex.FieldQuantityKg)]); err != nil {
		return contractx.ExtractionResult{}, err
	}
	textFields := []struct {
		field statex.Field
		dst   **string
	}{
		{statex.FieldDeliveryDay, &res.DeliveryDay},
		{statex.FieldAddress, &res.Address},
		{statex.FieldDistrict, &res.District},
		{statex.FieldPaymentMethod, &res.PaymentMethod},
	}
	for _, tf := range textFields {
		if *tf.dst, err = parseText(tf.field, raw[string(tf.field)]); err != nil {
			return contractx.ExtractionResult{}, err
		}
	}

	if res.Confirmed, err = parseConfirmed(raw[string(statex.FieldConfirmed)]); err != nil {
		return contractx.ExtractionResult{}, err
	}
	if res.MissingFields, err = parseMissing(raw["missing_fields"]); err != nil {
		return contractx.ExtractionResult{}, err
	}
	if res.ReplyText, err = parseReply(raw["reply_text"]); err != nil {
		return contractx.ExtractionResult{}, err
	}

	return res, nil
}

func stripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

type jsonKind int

const (
	kindAbsent jsonKind = iota
	kindNull
	kindString
	kindNumber
	kindBool
	kindObject
	kindArray
)

func kindOf(raw json.RawMessage) jsonKind {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return kindAbsent
	}
	switch trimmed[0] {
	case 'n':
		return kindNull
	case '"':
		return kindString
	case 't', 'f':
		return kindBool
	case '{':
		return kindObject
	case '[':
		return kindArray
	default:
		return kindNumber
	}
}

func parseQuantity(raw json.RawMessage) (*float64, error) {
	var v float64
	switch kindOf(raw) {
	case kindAbsent, kindNull:
		return nil, nil
	case kindNumber:
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: quantity_kg: %v", contractx.ErrSchemaViolation, err)
		}
	case kindString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: quantity_kg: %v", contractx.ErrSchemaViolation, err)
		}
		s = strings.TrimSpace(strings.Replace(s, ",", ".", 1))
		if s == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: quantity_kg %q is not numeric", contractx.ErrSchemaViolation, s)
		}
		v = parsed
	default:
		return nil, fmt.Errorf("%w: quantity_kg has unsupported type", contractx.ErrSchemaViolation)
	}

	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return nil, fmt.Errorf("%w: quantity_kg must be positive, got %v", contractx.ErrSchemaViolation, v)
	}
	return statex.Float(v), nil
}

func parseText(field statex.Field, raw json.RawMessage) (*string, error) {
	var s string
	switch kindOf(raw) {
	case kindAbsent, kindNull:
		return nil, nil
	case kindString:
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", contractx.ErrSchemaViolation, field, err)
		}
	case kindNumber, kindBool:
		s = string(bytes.TrimSpace(raw))
	default:
		return nil, fmt.Errorf("%w: %s has unsupported type", contractx.ErrSchemaViolation, field)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	return statex.String(s), nil
}

func parseConfirmed(raw json.RawMessage) (bool, error) {
	switch kindOf(raw) {
	case kindAbsent, kindNull:
		return false, nil
	case kindBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return false, fmt.Errorf("%w: confirmed: %v", contractx.ErrSchemaViolation, err)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%w: confirmed must be a boolean", contractx.ErrSchemaViolation)
	}
}

func parseMissing(raw json.RawMessage) ([]statex.Field, error) {
	if kindOf(raw) != kindArray {
		return nil, fmt.Errorf("%w: missing_fields must be a list", contractx.ErrSchemaViolation)
	}

	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, fmt.Errorf("%w: missing_fields: %v", contractx.ErrSchemaViolation, err)
	}

	out := make([]statex.Field, 0, len(names))
	seen := make(map[statex.Field]struct{}, len(names))
	for _, name := range names {
		f, ok := statex.ParseField(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown missing field %q", contractx.ErrSchemaViolation, name)
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out, nil
}

func parseReply(raw json.RawMessage) (string, error) {
	switch kindOf(raw) {
	case kindAbsent, kindNull:
		return "", nil
	case kindString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w: reply_text: %v", contractx.ErrSchemaViolation, err)
		}
		return strings.TrimSpace(s), nil
	default:
		return "", fmt.Errorf("%w: reply_text must be a string", contractx.ErrSchemaViolation)
	}
}
