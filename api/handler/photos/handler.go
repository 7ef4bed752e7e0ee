package photos

import (
	"strconv"

	"github.com/gin-gonic/gin"

	photoSvc "github.com/anoixa/photo-album/internal/photos"
)

// Handler 照片页面处理器
type Handler struct {
	photos *photoSvc.Service
}

// NewHandler 照片处理器
func NewHandler(photoService *photoSvc.Service) *Handler {
	return &Handler{photos: photoService}
}

type metadataForm struct {
	Title       string `form:"title" binding:"max=200"`
	Description string `form:"description"`
	Location    string `form:"location" binding:"max=200"`
	Tags        string `form:"tags" binding:"max=500"`
}

func (f metadataForm) metadata() photoSvc.Metadata {
	return photoSvc.Metadata{
		Title:       f.Title,
		Description: f.Description,
		Location:    f.Location,
		Tags:        f.Tags,
	}
}

// photoID parses :id; zero means invalid.
func photoID(c *gin.Context) uint {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}
