package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/afrovod/afrovod/internal/application/usecase/catalogbrowse"
	"github.com/afrovod/afrovod/internal/application/usecase/recommend"
	"github.com/afrovod/afrovod/internal/domain/member"
)

type CatalogHandler struct {
	browseUseCase     *catalogbrowse.BrowseUseCase
	recommendUseCase  *recommend.RecommendUseCase
	memberRepo        member.Repository
	defaultShelfCount int64
}

func NewCatalogHandler(browseUC *catalogbrowse.BrowseUseCase, recommendUC *recommend.RecommendUseCase, mRepo member.Repository) *CatalogHandler {
	return &CatalogHandler{
		browseUseCase:     browseUC,
		recommendUseCase:  recommendUC,
		memberRepo:        mRepo,
		defaultShelfCount: 12,
	}
}

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.browseUseCase.Categories(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	out := make([]CategoryDTO, len(categories))
	for i, cat := range categories {
		out[i] = ToCategoryDTO(cat)
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

func (h *CatalogHandler) RecentReleases(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	movies, err := h.browseUseCase.RecentReleases(c.Request.Context(), limit)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movies": ToMovieDTOs(movies)})
}

func (h *CatalogHandler) CategoryShelf(c *gin.Context) {
	shelf, err := h.browseUseCase.Shelf(c.Request.Context(), c.Param("slug"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"category": ToCategoryDTO(shelf.Category),
		"movies":   ToMovieDTOs(shelf.Movies),
		"series":   ToSeriesDTOs(shelf.Series),
	})
}

func (h *CatalogHandler) Search(c *gin.Context) {
	word := c.Query("q")
	if word == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'q' is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	result, err := h.browseUseCase.Search(c.Request.Context(), word, limit)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"movies": ToMovieDTOs(result.Movies),
		"series": ToSeriesDTOs(result.Series),
	})
}

func (h *CatalogHandler) GetMovie(c *gin.Context) {
	movie, err := h.browseUseCase.MovieBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movie": ToMovieDTO(movie)})
}

func (h *CatalogHandler) GetSeries(c *gin.Context) {
	detail, err := h.browseUseCase.SeriesBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"series":   ToSeriesDTO(detail.Series),
		"episodes": ToEpisodeDTOs(detail.Episodes),
	})
}

// Recommended serves the personalized home shelf. The member comes from the
// access token; anonymous visitors should call the recent endpoint instead.
func (h *CatalogHandler) Recommended(c *gin.Context) {
	memberID, ok := GetMemberIDFromGinContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member information not found"})
		return
	}
	m, err := h.memberRepo.FindByID(c.Request.Context(), memberID)
	if err != nil {
		renderError(c, err)
		return
	}

	count, _ := strconv.ParseInt(c.DefaultQuery("count", "12"), 10, 64)
	if count <= 0 {
		count = h.defaultShelfCount
	}

	items, err := h.recommendUseCase.Execute(c.Request.Context(), recommend.AllRecommendedInput{
		MemberID: m.ID,
		Username: m.Username,
		Count:    count,
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": ToRecommendedItemDTOs(items)})
}

func (h *CatalogHandler) RecommendedByCategory(c *gin.Context) {
	memberID, ok := GetMemberIDFromGinContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "member information not found"})
		return
	}
	m, err := h.memberRepo.FindByID(c.Request.Context(), memberID)
	if err != nil {
		renderError(c, err)
		return
	}
	category, err := h.browseUseCase.Category(c.Request.Context(), c.Param("slug"))
	if err != nil {
		renderError(c, err)
		return
	}

	count, _ := strconv.ParseInt(c.DefaultQuery("count", "12"), 10, 64)
	if count <= 0 {
		count = h.defaultShelfCount
	}

	items, err := h.recommendUseCase.ForSingleCategory(c.Request.Context(), recommend.AllRecommendedInput{
		MemberID: m.ID,
		Username: m.Username,
		Count:    count,
	}, category)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"category": ToCategoryDTO(category),
		"items":    ToRecommendedItemDTOs(items),
	})
}
