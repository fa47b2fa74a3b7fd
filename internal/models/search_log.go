package models

import "makro.app/internal/searchlog"

type SearchLogsResponse struct {
	Logs []searchlog.Entry `json:"logs"`
}

func NewSearchLogsResponse(entries []searchlog.Entry) SearchLogsResponse {
	if entries == nil {
		entries = []searchlog.Entry{}
	}
	return SearchLogsResponse{Logs: entries}
}
