package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lobsterwork/lobsterwork/internal/config"
	"github.com/shopspring/decimal"
)

// bindJSON decodes a size-limited JSON body into dst and writes a 400 on
// failure.
func bindJSON(c *gin.Context, dst any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, config.MaxBodyBytes)
	if err := c.ShouldBindJSON(dst); err != nil {
		writeBodyError(c, err)
		return false
	}
	return true
}

// decodeObject decodes a JSON object keeping numbers as json.Number, so that
// fields can be type checked the way loosely typed clients send them.
func decodeObject(c *gin.Context) (map[string]any, bool) {
	dec := json.NewDecoder(http.MaxBytesReader(c.Writer, c.Request.Body, config.MaxBodyBytes))
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		writeBodyError(c, err)
		return nil, false
	}
	if body == nil {
		badRequest(c, "Invalid JSON body")
		return nil, false
	}
	return body, true
}

func writeBodyError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
		return
	}
	badRequest(c, "Invalid JSON body")
}

// nonEmptyString returns the trimmed string value of v, or "" when v is not
// a string.
func nonEmptyString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func optionalString(v any) *string {
	s := nonEmptyString(v)
	if s == "" {
		return nil
	}
	return &s
}

// number returns v as a decimal when it is a JSON number.
func number(v any) *decimal.Decimal {
	n, ok := v.(json.Number)
	if !ok {
		return nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return nil
	}
	return &d
}
