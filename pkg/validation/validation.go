// Package validation 把 validator/v10 的校验结果转换为字段级错误消息
package validation

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	apperrors "abroad/pkg/errors"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator 全局校验器，字段名取 json 标签
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Struct 校验结构体，失败时返回 *errors.ValidationError
func Struct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = message(fe)
	}
	return &apperrors.ValidationError{Fields: fields}
}

// FromBindError 把 gin 绑定阶段的 JSON 错误转换为字段级错误
func FromBindError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return apperrors.NewValidationError(field, fmt.Sprintf("必须是 %s 类型", typeErr.Type.String()))
	}

	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldPath(fe)] = message(fe)
		}
		return &apperrors.ValidationError{Fields: fields}
	}

	return apperrors.NewValidationError("body", "请求体格式错误")
}

// fieldPath 去掉顶层结构体名，保留嵌套路径，如 positions[0].order
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "不能为空"
	case "max":
		return fmt.Sprintf("长度或数值不能超过 %s", fe.Param())
	case "min":
		return fmt.Sprintf("长度或数值不能小于 %s", fe.Param())
	case "gte":
		return fmt.Sprintf("必须大于等于 %s", fe.Param())
	case "gt":
		return fmt.Sprintf("必须大于 %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("只能是 %s 之一", fe.Param())
	case "len":
		return fmt.Sprintf("长度必须为 %s", fe.Param())
	case "email":
		return "邮箱格式错误"
	case "dive":
		return "列表元素不合法"
	default:
		return fmt.Sprintf("校验失败(%s)", fe.Tag())
	}
}
