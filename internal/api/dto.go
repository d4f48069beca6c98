package api

import "github.com/samcharles93/xtfkit/internal/channel"

// ChannelsResponse is the body of GET /v1/files/channels.
type ChannelsResponse struct {
	Path     string                   `json:"path"`
	Format   channel.Format           `json:"format"`
	Size     int64                    `json:"size"`
	Packets  int                      `json:"packets"`
	Types    map[string]int           `json:"packet_types"`
	Channels []channel.ChannelSummary `json:"channels"`
	Warnings []string                 `json:"warnings,omitempty"`
}

// PacketsResponse is one page of GET /v1/files/channels/:index/packets.
// Next is the offset of the following page, if any.
type PacketsResponse struct {
	Channel int              `json:"channel"`
	Offset  int              `json:"offset"`
	Limit   int              `json:"limit"`
	Records []channel.Record `json:"records"`
	Next    *int             `json:"next,omitempty"`
}
