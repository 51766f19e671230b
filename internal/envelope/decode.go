package envelope

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"

	"golang.org/x/net/html/charset"
)

// SuccessCode is the resultCode of a normal response.
const SuccessCode = "00"

type header struct {
	ResultCode *FlexString `json:"resultCode" xml:"resultCode"`
	ResultMsg  FlexString  `json:"resultMsg" xml:"resultMsg"`
}

type jsonBody struct {
	Items      Items      `json:"items"`
	NumOfRows  FlexString `json:"numOfRows"`
	PageNo     FlexString `json:"pageNo"`
	TotalCount FlexString `json:"totalCount"`
}

type jsonEnvelope struct {
	Response *struct {
		Header *header   `json:"header"`
		Body   *jsonBody `json:"body"`
	} `json:"response"`
}

type xmlBody struct {
	Items struct {
		Item []Item `xml:"item"`
	} `xml:"items"`
	NumOfRows  FlexString `xml:"numOfRows"`
	PageNo     FlexString `xml:"pageNo"`
	TotalCount FlexString `xml:"totalCount"`
}

// xmlEnvelope accepts any root element: <response> for normal replies and
// <OpenAPI_ServiceResponse> for gateway errors.
type xmlEnvelope struct {
	XMLName xml.Name
	Header  *header  `xml:"header"`
	Body    *xmlBody `xml:"body"`
	Gateway *struct {
		ErrMsg           FlexString `xml:"errMsg"`
		ReturnAuthMsg    FlexString `xml:"returnAuthMsg"`
		ReturnReasonCode FlexString `xml:"returnReasonCode"`
	} `xml:"cmmMsgHeader"`
}

// Decode parses a listing response. The body is treated as JSON when the
// content type says so or it starts with '{', and as XML when the content
// type mentions xml or it starts with '<'. Anything else is a *DecodeError.
//
// A non-empty resultCode other than "00" yields an *APIError. A response without a
// body container yields a *DecodeError wrapping ErrMalformedEnvelope.
func Decode(raw []byte, contentType string) (*Page, error) {
	ct := strings.ToLower(contentType)
	trimmed := bytes.TrimSpace(raw)

	switch {
	case strings.Contains(ct, "application/json") || bytes.HasPrefix(trimmed, []byte("{")):
		return decodeJSON(raw)
	case strings.Contains(ct, "xml") || bytes.HasPrefix(trimmed, []byte("<")):
		return decodeXML(raw)
	default:
		return nil, &DecodeError{Raw: raw, Reason: "unrecognized body"}
	}
}

func decodeJSON(raw []byte) (*Page, error) {
	var env jsonEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &DecodeError{Raw: raw, Reason: "invalid JSON", Err: err}
	}
	if env.Response == nil {
		return nil, &DecodeError{Raw: raw, Reason: "missing response", Err: ErrMalformedEnvelope}
	}
	if err := checkHeader(env.Response.Header); err != nil {
		return nil, err
	}
	b := env.Response.Body
	if b == nil {
		return nil, &DecodeError{Raw: raw, Reason: "missing body", Err: ErrMalformedEnvelope}
	}
	return &Page{
		TotalCount: b.TotalCount.Int(),
		PageNo:     b.PageNo.Int(),
		NumOfRows:  b.NumOfRows.Int(),
		Items:      b.Items,
	}, nil
}

func decodeXML(raw []byte) (*Page, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.CharsetReader = charset.NewReaderLabel
	dec.Strict = false

	var env xmlEnvelope
	if err := dec.Decode(&env); err != nil {
		return nil, &DecodeError{Raw: raw, Reason: "invalid XML", Err: err}
	}

	if g := env.Gateway; g != nil {
		msg := g.ReturnAuthMsg.String()
		if msg == "" {
			msg = g.ErrMsg.String()
		}
		return nil, &APIError{Code: g.ReturnReasonCode.String(), Message: msg}
	}
	if env.XMLName.Local != "response" {
		return nil, &DecodeError{Raw: raw, Reason: "unexpected root <" + env.XMLName.Local + ">", Err: ErrMalformedEnvelope}
	}
	if err := checkHeader(env.Header); err != nil {
		return nil, err
	}
	if env.Body == nil {
		return nil, &DecodeError{Raw: raw, Reason: "missing body", Err: ErrMalformedEnvelope}
	}
	return &Page{
		TotalCount: env.Body.TotalCount.Int(),
		PageNo:     env.Body.PageNo.Int(),
		NumOfRows:  env.Body.NumOfRows.Int(),
		Items:      env.Body.Items.Item,
	}, nil
}

func checkHeader(h *header) error {
	if h == nil || h.ResultCode == nil {
		return nil
	}
	code := h.ResultCode.String()
	if code == "" {
		return nil
	}
	if code != SuccessCode {
		return &APIError{Code: code, Message: h.ResultMsg.String()}
	}
	return nil
}

// Preview returns at most n bytes of raw for log messages.
func Preview(raw []byte, n int) string {
	if len(raw) <= n {
		return string(raw)
	}
	return fmt.Sprintf("%s...(%d bytes)", raw[:n], len(raw))
}
