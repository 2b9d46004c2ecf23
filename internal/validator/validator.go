package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/stemsi/exstem-practice/internal/exam"
	"github.com/stemsi/exstem-practice/internal/model"
)

var (
	trans ut.Translator
	once  sync.Once
)

// practiceTags are the custom tags used by practice request payloads.
var practiceTags = []struct {
	tag     string
	fn      govalidator.Func
	message string
}{
	{
		tag:     "practice_category",
		fn:      func(fl govalidator.FieldLevel) bool { return model.QuestionCategory(fl.Field().String()).Valid() },
		message: "{0} must be a known practice category",
	},
	{
		tag:     "practice_difficulty",
		fn:      func(fl govalidator.FieldLevel) bool { return model.QuestionDifficulty(fl.Field().String()).Valid() },
		message: "{0} must be easy, medium or hard",
	},
	{
		tag: "practice_action",
		fn: func(fl govalidator.FieldLevel) bool {
			_, ok := exam.ParseActionType(fl.Field().String())
			return ok
		},
		message: "{0} must be a known practice action",
	},
}

// Setup registers the validator with English translations and the practice tags on
// Gin's binding engine. Safe to call more than once.
func Setup() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*govalidator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		enLocale := en.New()
		uni := ut.New(enLocale, enLocale)
		trans, _ = uni.GetTranslator("en")
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		for _, pt := range practiceTags {
			_ = v.RegisterValidation(pt.tag, pt.fn)
			_ = v.RegisterTranslation(pt.tag, trans,
				func(ut ut.Translator) error { return ut.Add(pt.tag, pt.message, true) },
				func(ut ut.Translator, fe govalidator.FieldError) string {
					msg, _ := ut.T(fe.Tag(), fe.Field())
					return msg
				},
			)
		}
	})
}

// TranslateErrors maps a binding error to field name → message. Errors that are
// not validation errors land under "detail".
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			if trans == nil {
				fields[fe.Field()] = fe.Error()
				continue
			}
			fields[fe.Field()] = fe.Translate(trans)
		}
		return fields
	}

	fields["detail"] = err.Error()
	return fields
}

// Bind binds and validates the JSON body into dst.
// Returns nil on success or a translated field error map on failure.
func Bind(c *gin.Context, dst any) map[string]string {
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}
