package helper

import (
	"fmt"
	"mime"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/survey-api/internal/form"
)

const maxMultipartMemory = 8 << 20

// ParsePagination читает page и page_size из query с ограничениями
func ParsePagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if err != nil || pageSize < 1 {
		pageSize = 10
	} else if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// BindFormValues читает отправленную форму опроса. Поддерживаются
// urlencoded, multipart и JSON-объект {"question_1": "a", "question_2": ["x","z"]}.
func BindFormValues(c *gin.Context) (form.Values, error) {
	mediaType, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))
	switch mediaType {
	case gin.MIMEJSON:
		var raw map[string]interface{}
		if err := c.ShouldBindJSON(&raw); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		return form.ValuesFromMap(raw)
	case gin.MIMEMultipartPOSTForm:
		if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, fmt.Errorf("invalid multipart body: %w", err)
		}
	default:
		if err := c.Request.ParseForm(); err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
	}

	values := make(form.Values, len(c.Request.PostForm))
	for key, vs := range c.Request.PostForm {
		values[key] = append([]string(nil), vs...)
	}
	return values, nil
}

// ParseStep читает номер шага из пути
func ParseStep(c *gin.Context) (int, error) {
	step, err := strconv.Atoi(c.Param("step"))
	if err != nil || step < 0 {
		return 0, fmt.Errorf("invalid step %q", c.Param("step"))
	}
	return step, nil
}
