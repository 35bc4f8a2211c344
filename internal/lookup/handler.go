package lookup

import (
	"encoding/json"
	"net/http"

	"datalist/internal/logger"
)

// DefaultField is the reserved form field that carries a lookup payload.
const DefaultField = "foreignDatalist"

// Intercept answers any POST carrying the reserved field with the lookup
// result and stops there; other requests go to next untouched.
func Intercept(svc *Service, field string) func(http.Handler) http.Handler {
	if field == "" {
		field = DefaultField
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			raw := r.PostFormValue(field)
			if _, ok := r.PostForm[field]; !ok {
				next.ServeHTTP(w, r)
				return
			}

			var res Result
			payload, err := DecodePayload(raw)
			if err != nil {
				logger.Warn("lookup payload rejected: %v", err)
				res = ErrorResult("invalid payload: " + err.Error())
			} else {
				res = svc.Lookup(r.Context(), payload.Directive)
			}
			writeResult(w, res)
		})
	}
}

// Handler serves lookups on a dedicated route; requests without the
// reserved field get a sentinel result.
func Handler(svc *Service, field string) http.Handler {
	if field == "" {
		field = DefaultField
	}
	return Intercept(svc, field)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		writeResult(w, ErrorResult("missing form field "+field))
	}))
}

func writeResult(w http.ResponseWriter, res Result) {
	if res.Results == nil {
		res.Results = []Option{}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		logger.Error("write lookup result: %v", err)
	}
}
