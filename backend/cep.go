package backend

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/healthregistry/cep"
)

type cepResponse struct {
	CEP        string `json:"cep"`
	Street     string `json:"street"`
	Complement string `json:"complement"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
}

// cepLookup answers with JSON, as it is called by the patient form.
func cepLookup(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	ctx.StatusWritten()
	w.Header().Set("Content-Type", "application/json")

	if ctx.cep == nil {
		http.Error(w, `{"error":"CEP lookup is not configured"}`, http.StatusNotFound)
		return nil
	}

	address, err := ctx.cep.Lookup(req.Context(), params.ByName("cep"))
	switch {
	case err == nil:
	case errors.Is(err, cep.ErrInvalidCEP):
		http.Error(w, `{"error":"invalid CEP"}`, http.StatusBadRequest)
		return nil
	case errors.Is(err, cep.ErrNotFound):
		http.Error(w, `{"error":"CEP not found"}`, http.StatusNotFound)
		return nil
	default:
		log.Printf("error looking up CEP: %v", err)
		http.Error(w, `{"error":"CEP lookup failed"}`, http.StatusBadGateway)
		return nil
	}

	return json.NewEncoder(w).Encode(cepResponse{
		CEP:        address.CEP,
		Street:     address.Street,
		Complement: address.Complement,
		District:   address.District,
		City:       address.City,
		State:      address.State,
	})
}
