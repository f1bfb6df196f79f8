// Package api provides the REST API server for single-saberize
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BrokenLinc/single-saberize/pkg/beatmap"
	"github.com/BrokenLinc/single-saberize/pkg/converter"
	"github.com/BrokenLinc/single-saberize/pkg/converter/schemas"
	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Single-Saberize API
// @version 1.0
// @description API for converting two-handed beatmap difficulties to single-saber play
// @host localhost:8080
// @BasePath /api/v1

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// maxUpload bounds the size of an uploaded difficulty file
const maxUpload = 32 << 20

var errFileTooLarge = errors.New("file too large")

// Server holds the settings shared by every request
type Server struct {
	tiers        *beatmap.TierTable
	dropUnmerged bool
	logger       *log.Logger
}

// NewServer creates a server. A nil tier table uses the built-in tiers.
func NewServer(tiers *beatmap.TierTable, dropUnmerged bool, logger *log.Logger) *Server {
	if tiers == nil {
		tiers = beatmap.DefaultTiers()
	}
	return &Server{tiers: tiers, dropUnmerged: dropUnmerged, logger: logger}
}

// Handler returns the routes wrapped in CORS handling
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), s.requestLogger())

	r.GET("/health", healthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/tiers", s.listTiers)
		v1.POST("/convert", s.handleConvert)
		v1.POST("/synthesize", s.handleSynthesize)
		v1.POST("/preview", s.handlePreview)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders: []string{"Content-Disposition", RequestIDHeader},
	}).Handler(r)
}

// StartServer serves s on the specified port
func StartServer(port int, s *Server) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString("request_id"),
		)
	}
}

func (s *Server) newConverter(c *gin.Context) (*converter.Converter, error) {
	conv := converter.New(s.tiers, schemas.NewLegacy(), schemas.NewColorNotes())
	drop, err := boolQuery(c, "drop", s.dropUnmerged)
	if err != nil {
		return nil, err
	}
	conv.SetDropUnmerged(drop)
	return conv, nil
}

// statusOf maps an error to a response code: bad input 400, missing 404, else 500
func statusOf(err error) int {
	var (
		malformed   *beatmap.MalformedNoteError
		tempo       *beatmap.InvalidTempoError
		unknown     *beatmap.UnknownTierError
		unsupported *beatmap.UnsupportedTierError
		noSource    *beatmap.NoSourceTierAvailableError
	)
	switch {
	case errors.As(err, &malformed), errors.As(err, &tempo), errors.As(err, &unknown),
		errors.As(err, &unsupported), errors.As(err, &noSource):
		return http.StatusBadRequest
	}
	switch ftag.Get(err) {
	case ftag.InvalidArgument:
		return http.StatusBadRequest
	case ftag.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", c.GetString("request_id"), "err", err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "request_id": c.GetString("request_id")})
}

func floatQuery(c *gin.Context, name string, def float64) (float64, error) {
	v := c.Query(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fault.Wrap(err, fmsg.With("bad "+name), ftag.With(ftag.InvalidArgument))
	}
	return f, nil
}

func boolQuery(c *gin.Context, name string, def bool) (bool, error) {
	v := c.Query(name)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fault.Wrap(err, fmsg.With("bad "+name), ftag.With(ftag.InvalidArgument))
	}
	return b, nil
}

// difficultyQuery reads a tier name from the query, falling back to the upload's
// file name, so Expert.json needs no parameter
func difficultyQuery(c *gin.Context, name, filename string) (beatmap.Difficulty, error) {
	v := c.Query(name)
	if v == "" {
		v = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	return beatmap.ParseDifficulty(v)
}

// upload reads the multipart "file" field
func upload(c *gin.Context) ([]byte, string, error) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		return nil, "", fault.Wrap(err, fmsg.With("no file uploaded"), ftag.With(ftag.InvalidArgument))
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, maxUpload+1))
	if err != nil {
		return nil, "", fault.Wrap(err, fmsg.With("failed to read file"), ftag.With(ftag.InvalidArgument))
	}
	if len(data) > maxUpload {
		return nil, "", fault.Wrap(errFileTooLarge, ftag.With(ftag.InvalidArgument))
	}
	return data, header.Filename, nil
}

func sendResult(c *gin.Context, result *converter.Result) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", converter.DifficultyFileName(result.Difficulty)))
	c.Header("X-Schema", result.Schema)
	c.Header("X-Notes-In", strconv.Itoa(result.NotesIn))
	c.Header("X-Notes-Out", strconv.Itoa(result.NotesOut))
	c.Data(http.StatusOK, "application/json", result.Data)
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "single-saberize",
	})
}

type tierResponse struct {
	Name            string  `json:"name"`
	Order           int     `json:"order"`
	TimingThreshold float64 `json:"timingThreshold"`
	QuantumDivisor  float64 `json:"quantumDivisor,omitempty"`
	CanSynthesize   bool    `json:"canSynthesize"`
}

// listTiers godoc
// @Summary List difficulty tiers
// @Description Returns the tier rules used for conversion and synthesis
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]tierResponse
// @Router /api/v1/tiers [get]
func (s *Server) listTiers(c *gin.Context) {
	tiers := s.tiers.All()
	out := make([]tierResponse, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, tierResponse{
			Name:            t.Difficulty.String(),
			Order:           t.Order,
			TimingThreshold: t.TimingThreshold,
			QuantumDivisor:  t.QuantumDivisor,
			CanSynthesize:   t.CanSynthesize(),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"tiers":   out,
		"schemas": converter.New(s.tiers, schemas.NewLegacy(), schemas.NewColorNotes()).GetSupportedSchemas(),
	})
}

// handleConvert godoc
// @Summary Convert a difficulty to single saber
// @Description Upload a difficulty file and receive it with left notes merged into the right hand
// @Tags convert
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Difficulty file to convert"
// @Param difficulty query string false "Tier rules to use (default: from the file name)"
// @Param bpm query number false "Tempo used when the file carries none"
// @Param drop query bool false "Drop left notes that could not be merged"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert [post]
func (s *Server) handleConvert(c *gin.Context) {
	data, filename, err := upload(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	d, err := difficultyQuery(c, "difficulty", filename)
	if err != nil {
		s.fail(c, err)
		return
	}
	bpm, err := floatQuery(c, "bpm", 0)
	if err != nil {
		s.fail(c, err)
		return
	}
	conv, err := s.newConverter(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	result, err := conv.ConvertDifficulty(data, d, bpm)
	if err != nil {
		s.fail(c, fault.Wrap(err, fmsg.With("conversion failed"), ftag.With(ftag.InvalidArgument)))
		return
	}
	sendResult(c, result)
}

// handleSynthesize godoc
// @Summary Synthesize a lower difficulty
// @Description Upload a dense difficulty file and receive a derived lower tier
// @Tags convert
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Source difficulty file"
// @Param source query string false "Tier of the uploaded file (default: from the file name)"
// @Param target query string true "Tier to derive"
// @Param offset query number false "Song offset in milliseconds"
// @Param bpm query number false "Tempo used when the file carries none"
// @Param convert query bool false "Also run single-saber conversion on the result"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/synthesize [post]
func (s *Server) handleSynthesize(c *gin.Context) {
	data, filename, err := upload(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	source, err := difficultyQuery(c, "source", filename)
	if err != nil {
		s.fail(c, err)
		return
	}
	target, err := beatmap.ParseDifficulty(c.Query("target"))
	if err != nil {
		s.fail(c, err)
		return
	}
	offset, err := floatQuery(c, "offset", 0)
	if err != nil {
		s.fail(c, err)
		return
	}
	bpm, err := floatQuery(c, "bpm", 0)
	if err != nil {
		s.fail(c, err)
		return
	}
	convert, err := boolQuery(c, "convert", false)
	if err != nil {
		s.fail(c, err)
		return
	}
	conv, err := s.newConverter(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	result, err := conv.SynthesizeDifficulty(data, source, target, offset, bpm)
	if err == nil && convert {
		result, err = conv.ConvertDifficulty(result.Data, target, bpm)
	}
	if err != nil {
		s.fail(c, fault.Wrap(err, fmsg.With("synthesis failed"), ftag.With(ftag.InvalidArgument)))
		return
	}
	sendResult(c, result)
}

// handlePreview godoc
// @Summary Render a difficulty as MIDI
// @Description Upload a difficulty file and receive its notes as a MIDI file, one channel per hand
// @Tags convert
// @Accept multipart/form-data
// @Produce application/octet-stream
// @Param file formData file true "Difficulty file to render"
// @Param bpm query number false "Tempo used when the file carries none"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/preview [post]
func (s *Server) handlePreview(c *gin.Context) {
	data, filename, err := upload(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	bpm, err := floatQuery(c, "bpm", 0)
	if err != nil {
		s.fail(c, err)
		return
	}

	conv := converter.New(s.tiers, schemas.NewLegacy(), schemas.NewColorNotes())
	result, err := conv.PreviewMIDI(data, bpm)
	if err != nil {
		s.fail(c, fault.Wrap(err, fmsg.With("preview failed"), ftag.With(ftag.InvalidArgument)))
		return
	}

	outputName := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)) + ".mid"
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", outputName))
	c.Data(http.StatusOK, "audio/midi", result)
}
