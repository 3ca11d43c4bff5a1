// Package api provides the REST API server for osu2sm
package api

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/james-see/osu2sm/pkg/config"
	"github.com/james-see/osu2sm/pkg/converter"
	"github.com/james-see/osu2sm/pkg/converter/lanes"
	"github.com/james-see/osu2sm/pkg/preview"
)

// @title osu2sm API
// @version 1.0
// @description API for converting osu! beatmaps to StepMania simfiles
// @host localhost:8080
// @BasePath /api/v1

// Server holds the configuration shared by the handlers
type Server struct {
	cfg config.Config
}

// NewRouter builds the gin engine with every route registered
func NewRouter(cfg config.Config) *gin.Engine {
	s := &Server{cfg: cfg}
	r := gin.Default()

	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/formats", listFormats)
		v1.GET("/lanes", listLanes)
		v1.POST("/convert/osu2sm", s.handleOsuToSM)
		v1.POST("/convert/osu2midi", s.handleOsuToMIDI)
		v1.POST("/convert/midi2sm", s.handleMIDIToSM)
		v1.POST("/encode", s.handleEncode)
		v1.POST("/preview", s.handlePreview)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// StartServer starts the API server on the configured port
func StartServer(cfg config.Config) error {
	return NewRouter(cfg).Run(fmt.Sprintf(":%d", cfg.Server.Port))
}

func corsMiddleware() gin.HandlerFunc {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return func(ctx *gin.Context) {
		c.HandlerFunc(ctx.Writer, ctx.Request)

		if ctx.Request.Method == http.MethodOptions {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}

		ctx.Next()
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
		"service": "osu2sm",
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
		"formats": []string{
			string(converter.FormatOsu),
			string(converter.FormatSM),
			string(converter.FormatMIDI),
			string(converter.FormatEncoded),
		},
		"conversions": converter.GetSupportedConversions(),
	})
}

// listLanes godoc
// @Summary List lane strategies
// @Description Returns the strategies that assign notes to lanes
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/lanes [get]
func listLanes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"lanes": lanes.Names(),
	})
}

// handleOsuToSM godoc
// @Summary Convert .osu to .sm
// @Description Upload an osu! beatmap and receive a StepMania simfile
// @Tags convert
// @Accept multipart/form-data
// @Produce text/plain
// @Param file formData file true ".osu file to convert"
// @Param lanes query string false "Lane strategy (random or column)"
// @Param seed query int false "Seed for the random lane strategy"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/convert/osu2sm [post]
func (s *Server) handleOsuToSM(c *gin.Context) {
	s.handleConversion(c, ".sm", "text/plain; charset=utf-8", (*converter.Converter).OsuToSM)
}

// handleOsuToMIDI godoc
// @Summary Convert .osu to MIDI
// @Description Upload an osu! beatmap and receive a drum-track MIDI file
// @Tags convert
// @Accept multipart/form-data
// @Produce audio/midi
// @Param file formData file true ".osu file to convert"
// @Param lanes query string false "Lane strategy (random or column)"
// @Param seed query int false "Seed for the random lane strategy"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/convert/osu2midi [post]
func (s *Server) handleOsuToMIDI(c *gin.Context) {
	s.handleConversion(c, ".mid", "audio/midi", (*converter.Converter).OsuToMIDI)
}

// handleMIDIToSM godoc
// @Summary Convert MIDI to .sm
// @Description Upload a MIDI file and receive a StepMania simfile
// @Tags convert
// @Accept multipart/form-data
// @Produce text/plain
// @Param file formData file true "MIDI file to convert"
// @Param lanes query string false "Lane strategy (random or column)"
// @Param seed query int false "Seed for the random lane strategy"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/convert/midi2sm [post]
func (s *Server) handleMIDIToSM(c *gin.Context) {
	s.handleConversion(c, ".sm", "text/plain; charset=utf-8", (*converter.Converter).MIDIToSM)
}

// handleEncode godoc
// @Summary Re-encode a .sm file
// @Description Upload a simfile and receive its charts on a 192-row grid
// @Tags convert
// @Accept multipart/form-data
// @Produce text/plain
// @Param file formData file true ".sm file to encode"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/encode [post]
func (s *Server) handleEncode(c *gin.Context) {
	s.handleConversion(c, ".txt", "text/plain; charset=utf-8", (*converter.Converter).SMToEncoded)
}

// handlePreview godoc
// @Summary Preview a beatmap
// @Description Upload an osu! beatmap and receive a PNG of the converted chart
// @Tags convert
// @Accept multipart/form-data
// @Produce image/png
// @Param file formData file true ".osu file to preview"
// @Param lanes query string false "Lane strategy (random or column)"
// @Param seed query int false "Seed for the random lane strategy"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/preview [post]
func (s *Server) handlePreview(c *gin.Context) {
	s.handleConversion(c, ".png", "image/png", func(conv *converter.Converter, data []byte) ([]byte, error) {
		chart, err := conv.OsuToChart(data)
		if err != nil {
			return nil, err
		}
		img, err := preview.RenderChart(chart, preview.DefaultOptions())
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
}

// converterFor applies the lanes and seed query parameters on top of the
// server configuration.
func (s *Server) converterFor(c *gin.Context) (*converter.Converter, error) {
	cfg := s.cfg
	cfg.Lanes = c.DefaultQuery("lanes", cfg.Lanes)
	if seed := c.Query("seed"); seed != "" {
		v, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid seed %q", seed)
		}
		cfg.Seed = v
	}
	return cfg.NewConverter()
}

func (s *Server) handleConversion(c *gin.Context, outputExt, contentType string, convert func(*converter.Converter, []byte) ([]byte, error)) {
	// Get uploaded file
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer func() { _ = file.Close() }()

	// Read file content
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	conv, err := s.converterFor(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := convert(conv, data)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	// Generate output filename
	outputName := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	if outputName == "" {
		outputName = "converted"
	}
	outputName += outputExt

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outputName))
	c.Data(http.StatusOK, contentType, result)
}
