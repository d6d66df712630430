package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xdie/clasificados/server/avisos/domain"
	"github.com/xdie/clasificados/server/avisos/service"
	commonlog "github.com/xdie/clasificados/server/common/log"
	"github.com/xdie/clasificados/server/common/transport/httpresp"
)

// uploadFieldName is the multipart form field the client posts files under.
const uploadFieldName = "fotos"

type Handler struct {
	ingest   *service.IngestService
	listings *service.ListingService
	feed     *service.FeedService

	uploadsRoot  string
	maxFiles     int
	maxFileBytes int64
	allowedTypes map[string]struct{}
}

type Options struct {
	UploadsRoot       string
	MaxFilesPerBatch  int
	MaxFileBytes      int64
	AllowedMediaTypes []string
}

func NewHandler(ingest *service.IngestService, listings *service.ListingService, feed *service.FeedService, opts Options) *Handler {
	allowed := make(map[string]struct{}, len(opts.AllowedMediaTypes))
	for _, mediaType := range opts.AllowedMediaTypes {
		allowed[mediaType] = struct{}{}
	}
	return &Handler{
		ingest:       ingest,
		listings:     listings,
		feed:         feed,
		uploadsRoot:  opts.UploadsRoot,
		maxFiles:     opts.MaxFilesPerBatch,
		maxFileBytes: opts.MaxFileBytes,
		allowedTypes: allowed,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/upload", h.upload)
	r.POST("/avisos", h.createAviso)
	r.GET("/avisos", h.listAvisos)
	if h.feed != nil {
		r.GET("/ws/avisos", h.feed.HandleWS)
	}

	// Uploaded originals and thumbnails are publicly readable once written.
	r.Static("/uploads", h.uploadsRoot)
}

func (h *Handler) upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, httpresp.NewMessageResponse(httpresp.MsgNoFiles))
		return
	}
	headers := form.File[uploadFieldName]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, httpresp.NewMessageResponse(httpresp.MsgNoFiles))
		return
	}
	if len(headers) > h.maxFiles {
		c.JSON(http.StatusBadRequest, httpresp.NewMessageResponse(fmt.Sprintf(httpresp.MsgTooManyFiles, h.maxFiles)))
		return
	}

	files := make([]domain.UploadedFile, 0, len(headers))
	for _, header := range headers {
		if h.maxFileBytes > 0 && header.Size > h.maxFileBytes {
			c.JSON(http.StatusBadRequest, httpresp.NewMessageResponse(httpresp.MsgFileTooLarge))
			return
		}
		contentType := header.Header.Get("Content-Type")
		if _, ok := h.allowedTypes[contentType]; !ok && len(h.allowedTypes) > 0 {
			// The client dropzone restricts types; the server only records
			// the mismatch, it does not reject on content-type.
			commonlog.Warnf("upload %s declares unexpected content type %q", header.Filename, contentType)
		}

		src, err := header.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, httpresp.NewMessageResponse(httpresp.MsgUploadFailed))
			return
		}
		data, err := io.ReadAll(src)
		_ = src.Close()
		if err != nil {
			c.JSON(http.StatusInternalServerError, httpresp.NewMessageResponse(httpresp.MsgUploadFailed))
			return
		}
		files = append(files, domain.UploadedFile{
			Name:        header.Filename,
			ContentType: contentType,
			Size:        header.Size,
			Data:        data,
		})
	}

	manifest, err := h.ingest.Ingest(c.Request.Context(), files)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyBatch) {
			c.JSON(http.StatusBadRequest, httpresp.NewMessageResponse(httpresp.MsgNoFiles))
			return
		}
		commonlog.Errorf("ingest batch of %d files: %v", len(files), err)
		c.JSON(http.StatusInternalServerError, httpresp.NewMessageResponse(httpresp.MsgUploadFailed))
		return
	}
	c.JSON(http.StatusOK, httpresp.NewImagesResponse(manifest))
}

type createAvisoRequest struct {
	Titulo      string   `json:"titulo"`
	Telefono    string   `json:"telefono"`
	Descripcion string   `json:"descripcion"`
	Categoria   string   `json:"categoria"`
	Etiqueta    string   `json:"etiqueta"`
	Precio      float64  `json:"precio"`
	Fotos       []string `json:"fotos"`
}

func (h *Handler) createAviso(c *gin.Context) {
	var req createAvisoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpresp.NewMessageResponse(err.Error()))
		return
	}
	created, err := h.listings.Create(c.Request.Context(), domain.Aviso{
		Titulo:      req.Titulo,
		Telefono:    req.Telefono,
		Descripcion: req.Descripcion,
		Categoria:   req.Categoria,
		Etiqueta:    req.Etiqueta,
		Precio:      req.Precio,
		Fotos:       req.Fotos,
	})
	if err != nil {
		// Required-field validation surfaces here too; the contract keeps a
		// single generic failure for every create error.
		commonlog.Errorf("create aviso: %v", err)
		c.JSON(http.StatusInternalServerError, httpresp.NewMessageResponse(httpresp.MsgSaveFailed))
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) listAvisos(c *gin.Context) {
	items, err := h.listings.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		commonlog.Errorf("list avisos: %v", err)
		c.JSON(http.StatusInternalServerError, httpresp.NewMessageResponse(httpresp.MsgFetchFailed))
		return
	}
	c.JSON(http.StatusOK, items)
}
