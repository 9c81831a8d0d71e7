package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *server) addTransactionHandler(c *gin.Context) {
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in, err := req.toInput()
	if err != nil {
		s.fail(c, err)
		return
	}
	e, err := s.ledger.Create(c.Request.Context(), in, currentUser(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transaction created successfully", "transaction": toTransactionDTO(*e)})
}

func (s *server) updateTransactionHandler(c *gin.Context) {
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}
	in, err := req.toInput()
	if err != nil {
		s.fail(c, err)
		return
	}
	e, err := s.ledger.Update(c.Request.Context(), in, currentUser(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transaction updated successfully", "transaction": toTransactionDTO(*e)})
}

func queryID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Query("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id query parameter is required"})
		return 0, false
	}
	return uint(id), true
}

func (s *server) deleteTransactionHandler(c *gin.Context) {
	id, ok := queryID(c)
	if !ok {
		return
	}
	if err := s.ledger.Delete(c.Request.Context(), id, currentUser(c).ID); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}

func (s *server) listTransactionsHandler(c *gin.Context) {
	entries, err := s.ledger.ListByOwner(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]transactionDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toTransactionDTO(e))
	}
	c.JSON(http.StatusOK, gin.H{"transactions": out})
}

func (s *server) categoriesHandler(c *gin.Context) {
	cats, err := s.ledger.DistinctCategories(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if cats == nil {
		cats = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

func (s *server) changeCategoriesHandler(c *gin.Context) {
	var req struct {
		NewCategory   string   `json:"newCategory" binding:"required,max=255"`
		OldCategories []string `json:"oldCategories" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}
	n, err := s.ledger.RenameCategories(c.Request.Context(), currentUser(c).ID, req.NewCategory, req.OldCategories)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Categories updated successfully", "updated": n})
}

func (s *server) summaryHandler(c *gin.Context) {
	sum, err := s.ledger.Summary(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toSummaryDTO(sum))
}

// attachmentHandler streams the raw attachment, or a JPEG thumbnail when
// ?preview=<width> is given.
func (s *server) attachmentHandler(c *gin.Context) {
	id, ok := queryID(c)
	if !ok {
		return
	}
	t, err := s.ledger.Get(c.Request.Context(), id, currentUser(c).ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if t.Image == nil || *t.Image == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no attachment"})
		return
	}
	if p := c.Query("preview"); p != "" {
		width, err := strconv.Atoi(p)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "preview must be a width in pixels"})
			return
		}
		out, err := s.files.Preview(*t.Image, width)
		if err != nil {
			s.fail(c, err)
			return
		}
		if out == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no attachment"})
			return
		}
		c.Data(http.StatusOK, "image/jpeg", out)
		return
	}
	raw := s.files.Load(*t.Image)
	if raw == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no attachment"})
		return
	}
	c.Data(http.StatusOK, http.DetectContentType(raw), raw)
}
