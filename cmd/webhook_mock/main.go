package main

import (
	"area-picker/internal/model"
	"encoding/json"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	addr := os.Getenv("MOCK_ADDR")
	if addr == "" {
		addr = ":9090"
	}

	http.HandleFunc("/webhook", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var p model.SelectionPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			logger.WithError(err).Warn("invalid selection payload")
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		logger.WithFields(logrus.Fields{
			"selection_id": r.Header.Get("X-Selection-ID"),
			"area_id":      p.AreaID,
			"area_name":    p.AreaName,
			"coordinates":  p.Coordinates,
		}).Info("received selection")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	logger.Infof("Webhook mock listening on %s", addr)
	logger.Fatal(http.ListenAndServe(addr, nil))
}
