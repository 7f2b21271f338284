// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package casclient

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Assertion is the outcome of a successful ticket validation.
type Assertion struct {
	// User is the authenticated principal name.
	User string

	// Attributes are the released principal attributes. Single values are
	// stored as one-element slices.
	Attributes map[string][]string

	// ProxyGrantingTicketIOU is set when a pgtUrl was sent and the CAS server
	// issued a proxy granting ticket.
	ProxyGrantingTicketIOU string

	// Proxies lists the proxy chain for proxy tickets, most recent first.
	Proxies []string

	// ValidatedAt is when the response was received.
	ValidatedAt time.Time
}

// Attribute returns the values released for name, or nil.
func (a *Assertion) Attribute(name string) []string {
	if a == nil {
		return nil
	}
	return a.Attributes[name]
}

// XML wire format. Element names match on local name so both the cas:
// prefixed and unprefixed forms decode.

type xmlServiceResponse struct {
	XMLName      xml.Name                  `xml:"serviceResponse"`
	Success      *xmlAuthenticationSuccess `xml:"authenticationSuccess"`
	Failure      *xmlFailure               `xml:"authenticationFailure"`
	ProxySuccess *xmlProxySuccess          `xml:"proxySuccess"`
	ProxyFailure *xmlFailure               `xml:"proxyFailure"`
}

type xmlAuthenticationSuccess struct {
	User                string         `xml:"user"`
	ProxyGrantingTicket string         `xml:"proxyGrantingTicket"`
	Proxies             []string       `xml:"proxies>proxy"`
	Attributes          *xmlAttributes `xml:"attributes"`
}

type xmlAttributes struct {
	Values []xmlAttribute `xml:",any"`
}

// xmlAttribute is either <cas:name>value</cas:name> or the older
// <cas:attribute name="name" value="value"/> form.
type xmlAttribute struct {
	XMLName   xml.Name
	Name      string `xml:"name,attr"`
	AttrValue string `xml:"value,attr"`
	Value     string `xml:",chardata"`
}

type xmlFailure struct {
	Code        string `xml:"code,attr"`
	Description string `xml:",chardata"`
}

type xmlProxySuccess struct {
	ProxyTicket string `xml:"proxyTicket"`
}

// JSON wire format (CAS 3.0 format=JSON).

type jsonServiceResponse struct {
	ServiceResponse struct {
		Success      *jsonAuthenticationSuccess `json:"authenticationSuccess"`
		Failure      *jsonFailure               `json:"authenticationFailure"`
		ProxySuccess *jsonProxySuccess          `json:"proxySuccess"`
		ProxyFailure *jsonFailure               `json:"proxyFailure"`
	} `json:"serviceResponse"`
}

type jsonAuthenticationSuccess struct {
	User                string                     `json:"user"`
	ProxyGrantingTicket string                     `json:"proxyGrantingTicket"`
	Proxies             []string                   `json:"proxies"`
	Attributes          map[string]json.RawMessage `json:"attributes"`
}

type jsonFailure struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type jsonProxySuccess struct {
	ProxyTicket string `json:"proxyTicket"`
}

// parseValidationResponse decodes a serviceValidate/proxyValidate body.
func parseValidationResponse(body []byte, format string, now time.Time) (*Assertion, error) {
	if isJSON(body, format) {
		return parseJSONValidation(body, now)
	}
	return parseXMLValidation(body, now)
}

// parseProxyResponse decodes a /proxy body and returns the proxy ticket.
func parseProxyResponse(body []byte, format string) (string, error) {
	if isJSON(body, format) {
		var resp jsonServiceResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
		sr := resp.ServiceResponse
		switch {
		case sr.ProxySuccess != nil && strings.TrimSpace(sr.ProxySuccess.ProxyTicket) != "":
			return strings.TrimSpace(sr.ProxySuccess.ProxyTicket), nil
		case sr.ProxyFailure != nil:
			return "", newProtocolError(sr.ProxyFailure.Code, sr.ProxyFailure.Description)
		default:
			return "", fmt.Errorf("%w: no proxySuccess or proxyFailure element", ErrMalformedResponse)
		}
	}

	var resp xmlServiceResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	switch {
	case resp.ProxySuccess != nil && strings.TrimSpace(resp.ProxySuccess.ProxyTicket) != "":
		return strings.TrimSpace(resp.ProxySuccess.ProxyTicket), nil
	case resp.ProxyFailure != nil:
		return "", newProtocolError(resp.ProxyFailure.Code, resp.ProxyFailure.Description)
	default:
		return "", fmt.Errorf("%w: no proxySuccess or proxyFailure element", ErrMalformedResponse)
	}
}

// isJSON trusts the body over the configured format; CAS servers fall back to
// XML when they do not support format=JSON.
func isJSON(body []byte, format string) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return format == FormatJSON
	}
	return trimmed[0] == '{'
}

func parseXMLValidation(body []byte, now time.Time) (*Assertion, error) {
	var resp xmlServiceResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	if resp.Failure != nil {
		return nil, newProtocolError(resp.Failure.Code, resp.Failure.Description)
	}
	if resp.Success == nil {
		return nil, fmt.Errorf("%w: no authenticationSuccess or authenticationFailure element", ErrMalformedResponse)
	}

	user := strings.TrimSpace(resp.Success.User)
	if user == "" {
		return nil, fmt.Errorf("%w: authenticationSuccess without user", ErrMalformedResponse)
	}

	assertion := &Assertion{
		User:                   user,
		Attributes:             make(map[string][]string),
		ProxyGrantingTicketIOU: strings.TrimSpace(resp.Success.ProxyGrantingTicket),
		Proxies:                trimAll(resp.Success.Proxies),
		ValidatedAt:            now,
	}
	if resp.Success.Attributes != nil {
		for _, attr := range resp.Success.Attributes.Values {
			name, value := attr.XMLName.Local, attr.Value
			if name == "attribute" && attr.Name != "" {
				name, value = attr.Name, attr.AttrValue
			}
			assertion.Attributes[name] = append(assertion.Attributes[name], strings.TrimSpace(value))
		}
	}
	return assertion, nil
}

func parseJSONValidation(body []byte, now time.Time) (*Assertion, error) {
	var resp jsonServiceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	sr := resp.ServiceResponse
	if sr.Failure != nil {
		return nil, newProtocolError(sr.Failure.Code, sr.Failure.Description)
	}
	if sr.Success == nil {
		return nil, fmt.Errorf("%w: no authenticationSuccess or authenticationFailure member", ErrMalformedResponse)
	}

	user := strings.TrimSpace(sr.Success.User)
	if user == "" {
		return nil, fmt.Errorf("%w: authenticationSuccess without user", ErrMalformedResponse)
	}

	assertion := &Assertion{
		User:                   user,
		Attributes:             make(map[string][]string, len(sr.Success.Attributes)),
		ProxyGrantingTicketIOU: strings.TrimSpace(sr.Success.ProxyGrantingTicket),
		Proxies:                trimAll(sr.Success.Proxies),
		ValidatedAt:            now,
	}
	for name, raw := range sr.Success.Attributes {
		values, err := attributeValues(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: attribute %q: %w", ErrMalformedResponse, name, err)
		}
		assertion.Attributes[name] = values
	}
	return assertion, nil
}

// attributeValues accepts a scalar or an array of scalars.
func attributeValues(raw json.RawMessage) ([]string, error) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	switch v := decoded.(type) {
	case nil:
		return nil, nil
	case []any:
		values := make([]string, 0, len(v))
		for _, item := range v {
			values = append(values, scalarString(item))
		}
		return values, nil
	default:
		return []string{scalarString(v)}, nil
	}
}

func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

func newProtocolError(code, description string) *ProtocolError {
	code = strings.TrimSpace(code)
	if code == "" {
		code = CodeInvalidRequest
	}
	return &ProtocolError{Code: code, Description: strings.TrimSpace(description)}
}

func trimAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
