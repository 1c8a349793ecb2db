package rest

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tempfiles-api/internal/application/ports"
	"tempfiles-api/internal/domain/resource"
	dto "tempfiles-api/internal/interface/api/rest/dto/resource"
	"tempfiles-api/internal/interface/api/rest/middleware"
	"tempfiles-api/internal/interface/api/rest/validator"
)

// multipartOverhead leaves room for boundaries and part headers around the file.
const multipartOverhead = int64(64 << 10)

type FileController struct {
	resourceService ports.ResourceService
	logger          *zap.Logger
	maxBody         int64
}

func NewFileController(
	r *gin.Engine,
	resourceService ports.ResourceService,
	logger *zap.Logger,
	maxUpload int64,
	mw *middleware.Auth,
) *FileController {
	fc := &FileController{
		resourceService: resourceService,
		logger:          logger,
		maxBody:         maxUpload + multipartOverhead,
	}

	r.POST(RouteFile, mw.MaybeAuth(), fc.UploadHandler)
	r.GET(RouteFileID, fc.RedirectHandler)
	r.GET(RouteFileName, fc.DownloadHandler)
	r.GET(RouteFileInfo, fc.InfoHandler)

	return fc
}

// FileURL is the public download location of a stored file.
func FileURL(id resource.ID, name string) string {
	return fmt.Sprintf("%s/%s/%s", RouteFile, id, url.PathEscape(name))
}

func (fc *FileController) UploadHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, fc.maxBody)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		fc.logger.Error("open multipart file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read the upload"})
		return
	}
	defer f.Close()

	res, err := fc.resourceService.Create(c.Request.Context(), middleware.CurrentUser(c), ports.Upload{
		FileName: fh.Filename,
		Size:     fh.Size,
		Body:     f,
	})
	if err != nil {
		respondError(c, fc.logger, "Create()", err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToResponse(*res, FileURL(res.ID, res.FileName)))
}

func (fc *FileController) RedirectHandler(c *gin.Context) {
	id, err := validator.ParseFID(c.Param("fid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name, err := fc.resourceService.FileName(c.Request.Context(), id)
	if err != nil {
		respondError(c, fc.logger, "FileName()", err)
		return
	}

	c.Redirect(http.StatusFound, FileURL(id, name))
}

func (fc *FileController) DownloadHandler(c *gin.Context) {
	id, err := validator.ParseFID(c.Param("fid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rc, fi, err := fc.resourceService.Open(c.Request.Context(), id, c.Param("name"))
	if err != nil {
		respondError(c, fc.logger, "Open()", err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, fi.Size, "application/octet-stream", rc, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": fi.Name}),
	})
}

func (fc *FileController) InfoHandler(c *gin.Context) {
	id, err := validator.ParseFID(c.Param("fid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fi, err := fc.resourceService.Info(c.Request.Context(), id, c.Param("name"))
	if err != nil {
		respondError(c, fc.logger, "Info()", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInfo(*fi))
}
