// Package api serves channel listings, packet records and conversions over
// HTTP.
package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/xtfkit/internal/channel"
	"github.com/samcharles93/xtfkit/internal/convert"
	"github.com/samcharles93/xtfkit/internal/logger"
	"github.com/samcharles93/xtfkit/internal/version"
)

const (
	defaultPacketLimit = 100
	maxPacketLimit     = 10000
)

// Config configures a Server.
type Config struct {
	// Root confines every input and output path to a directory tree.
	// Relative paths are resolved against it. Empty means no restriction.
	Root string
	// Amplitudes makes channel listings compute amplitude statistics.
	Amplitudes bool
	Logger     logger.Logger
}

type Server struct {
	root       string
	amplitudes bool
	log        logger.Logger
}

func NewServer(cfg Config) (*Server, error) {
	s := &Server{amplitudes: cfg.Amplitudes, log: cfg.Logger}
	if s.log == nil {
		s.log = logger.Discard()
	}
	if cfg.Root != "" {
		root, err := filepath.Abs(cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("api: root: %w", err)
		}
		s.root = root
	}
	return s, nil
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/version", s.handleVersion)

	e.GET("/v1/files/channels", s.handleChannels)
	e.GET("/v1/files/channels/:index/packets", s.handlePackets)
	e.POST("/v1/convert", s.handleConvert)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(c *echo.Context) error {
	return c.JSON(http.StatusOK, version.Resolve())
}

func (s *Server) handleChannels(c *echo.Context) error {
	path, err := s.resolve(c.QueryParam("path"))
	if err != nil {
		return writeFailure(c, err)
	}
	h, err := channel.Open(path)
	if err != nil {
		return writeFailure(c, err)
	}
	defer func() { _ = h.Close() }()

	res, err := h.Scan(c.Request().Context(), channel.ScanOptions{Amplitudes: s.amplitudes})
	if err != nil {
		return writeFailure(c, err)
	}
	return c.JSON(http.StatusOK, ChannelsResponse{
		Path:     path,
		Format:   res.Format,
		Size:     res.Size,
		Packets:  res.Packets,
		Types:    res.Types,
		Channels: res.Channels,
		Warnings: res.Warnings,
	})
}

func (s *Server) handlePackets(c *echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return writeBadRequest(c, "channel index must be an integer")
	}
	limit, err := queryInt(c, "limit", defaultPacketLimit)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	limit = min(max(limit, 1), maxPacketLimit)

	path, err := s.resolve(c.QueryParam("path"))
	if err != nil {
		return writeFailure(c, err)
	}
	h, err := channel.Open(path)
	if err != nil {
		return writeFailure(c, err)
	}
	defer func() { _ = h.Close() }()

	resp := PacketsResponse{Channel: index, Offset: offset, Limit: limit, Records: []channel.Record{}}
	ctx := c.Request().Context()
	for rec, err := range h.ReadPackets(index) {
		if err != nil {
			return writeFailure(c, err)
		}
		if err := ctx.Err(); err != nil {
			return writeFailure(c, err)
		}
		if rec.Seq < offset {
			continue
		}
		if len(resp.Records) == limit {
			next := rec.Seq
			resp.Next = &next
			break
		}
		resp.Records = append(resp.Records, rec)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleConvert(c *echo.Context) error {
	req, err := decodeJSON[convert.Request](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, fmt.Sprintf("request body: %v", err))
	}
	if req.Input, err = s.resolve(req.Input); err != nil {
		return writeFailure(c, err)
	}
	if req.Output, err = s.resolve(req.Output); err != nil {
		return writeFailure(c, err)
	}

	ctx := logger.WithContext(c.Request().Context(), s.log.With("remote", c.RealIP()))
	sum, err := convert.Convert(ctx, req)
	if err != nil {
		return writeFailure(c, err)
	}
	return c.JSON(http.StatusOK, sum)
}

// resolve maps a request path onto the filesystem, keeping it inside the
// configured root.
func (s *Server) resolve(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", newInvalidRequest("path is required")
	}
	if s.root == "" {
		return filepath.Clean(p), nil
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.root, p)
	}
	p = filepath.Clean(p)
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, p)
	}
	return p, nil
}

func queryInt(c *echo.Context, name string, def int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
