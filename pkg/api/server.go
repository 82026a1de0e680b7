// Package api provides the REST API server for vgm2fur
package api

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/james-see/vgm2fur/pkg/chips"
	"github.com/james-see/vgm2fur/pkg/converter"
	"github.com/james-see/vgm2fur/pkg/furnace"
	"github.com/james-see/vgm2fur/pkg/transform"
	"github.com/james-see/vgm2fur/pkg/vgm"
)

// DefaultCacheSize is the number of conversion results kept by StartServer
const DefaultCacheSize = 64

// WarningsHeader carries the number of warnings raised by a conversion
const WarningsHeader = "X-Vgm2fur-Warnings"

// @title vgm2fur API
// @version 1.0
// @description API for converting Sega Genesis VGM logs into Furnace tracker modules
// @host localhost:8080
// @BasePath /api/v1

// result is a finished conversion as kept in the cache
type result struct {
	data     []byte
	warnings int
}

// Server holds the state shared by the handlers
type Server struct {
	cache *lru.Cache[string, result]
}

// NewServer creates a server caching up to cacheSize conversion results
func NewServer(cacheSize int) (*Server, error) {
	cache, err := lru.New[string, result](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return &Server{cache: cache}, nil
}

// Routes registers every endpoint on r
func (s *Server) Routes(r *gin.Engine) {
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/formats", listFormats)
		v1.POST("/convert/vgm2fur", s.handleVGMToFur)
		v1.POST("/convert/vgm2midi", s.handleVGMToMIDI)
		v1.POST("/convert/vgm2csv", s.handleVGMToCSV)
		v1.POST("/convert/vgm2txt", s.handleVGMToText)
		v1.POST("/inspect", handleInspect)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// StartServer starts the API server on the specified port
func StartServer(port int) error {
	s, err := NewServer(DefaultCacheSize)
	if err != nil {
		return err
	}
	r := gin.Default()
	s.Routes(r)
	return r.Run(fmt.Sprintf(":%d", port))
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
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
		"service": "vgm2fur",
	})
}

// listFormats godoc
// @Summary List supported formats
// @Description Returns a list of supported file formats
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/formats [get]
func listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"formats":     []string{"vgm", "vgz", "fur", "midi", "csv", "txt"},
		"conversions": converter.GetSupportedConversions(),
	})
}

// parseConfig reads the conversion settings from the query string.
// Missing parameters keep their DefaultConfig values.
func parseConfig(c *gin.Context) (converter.Config, error) {
	cfg := converter.DefaultConfig()
	floats := []struct {
		name string
		dst  *float64
	}{
		{"rowdur", &cfg.RowDuration},
		{"rate", &cfg.Rate},
		{"fm-volume", &cfg.FMVolume},
		{"psg-volume", &cfg.PSGVolume},
	}
	for _, f := range floats {
		if v, ok := c.GetQuery(f.name); ok {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return cfg, fmt.Errorf("%w: %s=%q", converter.ErrInvalidConfig, f.name, v)
			}
			*f.dst = n
		}
	}
	ints := []struct {
		name string
		dst  *int
	}{
		{"patlen", &cfg.PatternLength},
		{"skip", &cfg.Skip},
	}
	for _, f := range ints {
		if v, ok := c.GetQuery(f.name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return cfg, fmt.Errorf("%w: %s=%q", converter.ErrInvalidConfig, f.name, v)
			}
			*f.dst = n
		}
	}
	bools := []struct {
		name string
		dst  *bool
	}{
		{"dac", &cfg.DAC},
		{"compress", &cfg.Compress},
	}
	for _, f := range bools {
		if v, ok := c.GetQuery(f.name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return cfg, fmt.Errorf("%w: %s=%q", converter.ErrInvalidConfig, f.name, v)
			}
			*f.dst = b
		}
	}
	if v, ok := c.GetQuery("latch"); ok {
		policy, ok := chips.ParseLatchPolicy(v)
		if !ok {
			return cfg, fmt.Errorf("%w: latch=%q", converter.ErrInvalidConfig, v)
		}
		cfg.Latch = policy
	}
	return cfg, cfg.Validate()
}

// statusFor maps a conversion error onto an HTTP status
func statusFor(err error) int {
	var unknownCmd *vgm.UnknownCommandError
	var unknownFeature *converter.UnknownFeatureError
	switch {
	case errors.Is(err, converter.ErrInvalidConfig), errors.As(err, &unknownFeature):
		return http.StatusBadRequest
	case errors.Is(err, vgm.ErrBadMagic), errors.Is(err, vgm.ErrTruncated),
		errors.As(err, &unknownCmd), errors.Is(err, furnace.ErrNotModule):
		return http.StatusUnprocessableEntity
	case errors.Is(err, transform.ErrCh3SpecialMode), errors.Is(err, transform.ErrCSMMode),
		errors.Is(err, furnace.ErrTooManyOrders):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// upload reads the multipart "file" field
func upload(c *gin.Context) ([]byte, string, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return nil, "", false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return nil, "", false
	}
	return data, header.Filename, true
}

// cacheKey identifies a conversion by its input, its output kind and its settings
func cacheKey(data []byte, kind string, cfg converter.Config, extra string) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s|%s|%+v|%s", hex.EncodeToString(sum[:]), kind, cfg, extra)
}

type conversion func(conv *converter.Converter, data []byte) (result, error)

func (s *Server) handleConversion(c *gin.Context, format converter.Format, contentType, extra string, run conversion) {
	data, filename, ok := upload(c)
	if !ok {
		return
	}
	cfg, err := parseConfig(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := cacheKey(data, string(format), cfg, extra)
	res, hit := s.cache.Get(key)
	if !hit {
		res, err = run(converter.New(cfg), data)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		s.cache.Add(key, res)
	}

	outputName := converter.OutputPath(filename, format)
	if filename == "" {
		outputName = converter.OutputPath("converted", format)
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", outputName))
	c.Header(WarningsHeader, strconv.Itoa(res.warnings))
	c.Data(http.StatusOK, contentType, res.data)
}

// handleVGMToFur godoc
// @Summary Convert VGM to a Furnace module
// @Description Upload a .vgm or .vgz file and receive a .fur module
// @Tags convert
// @Accept multipart/form-data
// @Produce application/octet-stream
// @Param file formData file true "VGM file to convert"
// @Param rowdur query number false "Row duration in samples"
// @Param rate query number false "Row rate in Hz"
// @Param patlen query int false "Pattern length (default: 128)"
// @Param skip query int false "Samples to skip"
// @Param fm-volume query number false "FM chip volume (default: 1.0)"
// @Param psg-volume query number false "PSG chip volume (default: 1.0)"
// @Param latch query string false "Frequency latch: relaxed or gated"
// @Param dac query bool false "Export DAC samples"
// @Param compress query bool false "Compress the module (default: true)"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/convert/vgm2fur [post]
func (s *Server) handleVGMToFur(c *gin.Context) {
	s.handleConversion(c, converter.FormatFurnace, "application/octet-stream", "",
		func(conv *converter.Converter, data []byte) (result, error) {
			res, err := conv.Convert(data)
			if err != nil {
				return result{}, err
			}
			return result{data: res.Data, warnings: len(res.Warnings)}, nil
		})
}

// handleVGMToMIDI godoc
// @Summary Convert VGM to MIDI
// @Description Upload a .vgm or .vgz file and receive the note rows as a MIDI file
// @Tags convert
// @Accept multipart/form-data
// @Produce audio/midi
// @Param file formData file true "VGM file to convert"
// @Param rowdur query number false "Row duration in samples"
// @Param rate query number false "Row rate in Hz"
// @Param skip query int false "Samples to skip"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert/vgm2midi [post]
func (s *Server) handleVGMToMIDI(c *gin.Context) {
	s.handleConversion(c, converter.FormatMIDI, "audio/midi", "",
		func(conv *converter.Converter, data []byte) (result, error) {
			out, err := conv.ExportMIDI(data)
			return result{data: out}, err
		})
}

// handleVGMToCSV godoc
// @Summary Dump VGM chip state as CSV
// @Description Upload a .vgm or .vgz file and receive the selected state features per row
// @Tags dump
// @Accept multipart/form-data
// @Produce text/csv
// @Param file formData file true "VGM file to dump"
// @Param features query string false "Comma separated features (default: fmx,id,freqfm,alg,psgx,vol,freqpsg,nmode)"
// @Param rowdur query number false "Row duration in samples"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert/vgm2csv [post]
func (s *Server) handleVGMToCSV(c *gin.Context) {
	features := c.DefaultQuery("features", strings.Join(converter.DefaultFeatures, ","))
	s.handleConversion(c, converter.FormatCSV, "text/csv", features,
		func(conv *converter.Converter, data []byte) (result, error) {
			var buf bytes.Buffer
			err := conv.CSV(&buf, data, strings.Split(features, ","))
			return result{data: buf.Bytes()}, err
		})
}

// handleVGMToText godoc
// @Summary Dump VGM chip state as text
// @Description Upload a .vgm or .vgz file and receive one line of chip state per row
// @Tags dump
// @Accept multipart/form-data
// @Produce text/plain
// @Param file formData file true "VGM file to dump"
// @Param rowdur query number false "Row duration in samples"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert/vgm2txt [post]
func (s *Server) handleVGMToText(c *gin.Context) {
	s.handleConversion(c, converter.FormatText, "text/plain; charset=utf-8", "",
		func(conv *converter.Converter, data []byte) (result, error) {
			var buf bytes.Buffer
			err := conv.Print(&buf, data, chips.Kinds...)
			return result{data: buf.Bytes()}, err
		})
}

// handleInspect godoc
// @Summary Inspect a Furnace module
// @Description Upload a .fur module and receive its structure
// @Tags info
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Furnace module"
// @Success 200 {object} map[string]interface{}
// @Failure 422 {object} map[string]string
// @Router /api/v1/inspect [post]
func handleInspect(c *gin.Context) {
	data, filename, ok := upload(c)
	if !ok {
		return
	}
	info, err := furnace.Inspect(data)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"file":             filename,
		"size":             humanize.Bytes(uint64(len(data))),
		"compressed":       info.Compressed,
		"version":          info.Version,
		"ticks_per_second": info.TicksPerSecond,
		"pattern_length":   info.PatternLength,
		"orders":           info.Orders,
		"instruments":      len(info.Instruments),
		"samples":          len(info.Samples),
		"patterns":         len(info.Patterns),
		"name":             info.Name,
		"comment":          info.Comment,
	})
}
