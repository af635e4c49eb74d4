package http

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"points-exchange-service/internal/domain"
)

var (
	translatorOnce sync.Once
	translator     ut.Translator
)

// setupValidator registers English messages and JSON field names on gin's validator.
func setupValidator() {
	translatorOnce.Do(func() {
		_en := en.New()
		uni := ut.New(_en, _en)
		translator, _ = uni.GetTranslator("en")

		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = en_translations.RegisterDefaultTranslations(v, translator)
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindJSON decodes the body into req and turns binding failures into a
// *domain.ValidationError with one entry per offending field.
func bindJSON(c *gin.Context, req interface{}) error {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.NewValidationError(nil, domain.FieldError{Field: "body", Error: "malformed JSON body"})
	}
	fields := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, domain.FieldError{
			Field: fieldPath(fe.Namespace()),
			Error: fe.Translate(translator),
		})
	}
	return domain.NewValidationError(nil, fields...)
}

// fieldPath drops the struct name from a validator namespace: "createQuizRequest.questions[0].prompt" -> "questions[0].prompt".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
