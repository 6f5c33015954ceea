package handlers

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/usersoap/usersvc/internal/services"
)

const (
	userNamespace        = "http://example.com/user"
	soapEnvelopeNS       = "http://schemas.xmlsoap.org/soap/envelope/"
	userServiceNamespace = "http://example.com/userservice"
)

const (
	fieldUsername  = "username"
	fieldPassword  = "password"
	fieldFirstName = "first_name"
	fieldLastName  = "last_name"
	fieldDNI       = "dni"
	fieldEmail     = "email"
	fieldCity      = "city"
)

var requiredFields = []string{
	fieldUsername,
	fieldPassword,
	fieldFirstName,
	fieldLastName,
	fieldDNI,
	fieldEmail,
	fieldCity,
}

var (
	errEmptyRequest     = errors.New("empty request body")
	errMalformedRequest = errors.New("malformed request")
)

// RegisterRequest is the flat field set extracted from a SOAP registration call.
type RegisterRequest struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	DNI       string
	Email     string
	City      string
}

func (r RegisterRequest) registration() services.Registration {
	return services.Registration{
		Username:  r.Username,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		DNI:       r.DNI,
		Email:     r.Email,
		City:      r.City,
	}
}

// parseRegisterRequest extracts the user fields from a SOAP envelope. Fields
// are matched by namespace and local name anywhere in the document; the
// first occurrence of each wins and its text content is trimmed.
func parseRegisterRequest(body []byte) (RegisterRequest, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return RegisterRequest{}, errEmptyRequest
	}

	values, err := collectUserFields(body)
	if err != nil {
		return RegisterRequest{}, err
	}

	for _, field := range requiredFields {
		if values[field] == "" {
			return RegisterRequest{}, fmt.Errorf("%w: missing %s", errMalformedRequest, field)
		}
	}

	return RegisterRequest{
		Username:  values[fieldUsername],
		Password:  values[fieldPassword],
		FirstName: values[fieldFirstName],
		LastName:  values[fieldLastName],
		DNI:       values[fieldDNI],
		Email:     values[fieldEmail],
		City:      values[fieldCity],
	}, nil
}

func collectUserFields(body []byte) (map[string]string, error) {
	wanted := make(map[string]bool, len(requiredFields))
	for _, field := range requiredFields {
		wanted[field] = true
	}

	values := make(map[string]string, len(requiredFields))
	decoder := xml.NewDecoder(bytes.NewReader(body))

	var (
		current string
		depth   int
		text    strings.Builder
	)
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformedRequest, err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			if current != "" {
				depth++
				continue
			}
			if t.Name.Space != userNamespace || !wanted[t.Name.Local] {
				continue
			}
			if _, seen := values[t.Name.Local]; seen {
				continue
			}
			current = t.Name.Local
			depth = 1
			text.Reset()
		case xml.CharData:
			if current != "" {
				text.Write(t)
			}
		case xml.EndElement:
			if current == "" {
				continue
			}
			depth--
			if depth == 0 {
				values[current] = strings.TrimSpace(text.String())
				current = ""
			}
		}
	}
	return values, nil
}

type soapEnvelope struct {
	XMLName xml.Name `xml:"soapenv:Envelope"`
	SoapNS  string   `xml:"xmlns:soapenv,attr"`
	UserNS  string   `xml:"xmlns:us,attr"`
	Header  struct{} `xml:"soapenv:Header"`
	Body    soapBody `xml:"soapenv:Body"`
}

type soapBody struct {
	Response registerUserResponse `xml:"us:registerUserResponse"`
}

type registerUserResponse struct {
	Message string `xml:"us:message"`
	ID      string `xml:"us:id,omitempty"`
}

func marshalRegisterResponse(message, id string) ([]byte, error) {
	envelope := soapEnvelope{
		SoapNS: soapEnvelopeNS,
		UserNS: userServiceNamespace,
		Body: soapBody{
			Response: registerUserResponse{Message: message, ID: id},
		},
	}

	out, err := xml.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
