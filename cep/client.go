// Package cep looks up Brazilian postal codes at ViaCEP.
package cep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/wansing/healthregistry/core"
	"github.com/wansing/healthregistry/util"
)

const DefaultBaseURL = "https://viacep.com.br/ws"

var (
	ErrInvalidCEP = errors.New("CEP must have 8 digits")
	ErrNotFound   = errors.New("CEP not found")
)

type Client struct {
	BaseURL    string // without trailing slash
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// response is the JSON document of ViaCEP. Erro is true or "true" for unknown CEPs.
type response struct {
	CEP         string      `json:"cep"`
	Logradouro  string      `json:"logradouro"`
	Complemento string      `json:"complemento"`
	Bairro      string      `json:"bairro"`
	Localidade  string      `json:"localidade"`
	UF          string      `json:"uf"`
	Erro        interface{} `json:"erro"`
}

func (r *response) notFound() bool {
	switch erro := r.Erro.(type) {
	case bool:
		return erro
	case string:
		return erro == "true"
	}
	return false
}

// Lookup returns the address of a CEP. Number is never set.
func (c *Client) Lookup(ctx context.Context, cep string) (*core.Address, error) {

	cep = util.Digits(cep)
	if len(cep) != 8 {
		return nil, ErrInvalidCEP
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/"+cep+"/json/", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest:
		return nil, ErrInvalidCEP
	default:
		return nil, fmt.Errorf("viacep returned %s", resp.Status)
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decoding viacep response: %w", err)
	}
	if r.notFound() {
		return nil, ErrNotFound
	}

	return &core.Address{
		CEP:        util.Digits(r.CEP),
		Street:     r.Logradouro,
		Complement: r.Complemento,
		District:   r.Bairro,
		City:       r.Localidade,
		State:      r.UF,
	}, nil
}
