package response

import "net/http"

// CodeMsgMap 状态码的默认文案；业务错误一般自带文案
var CodeMsgMap = map[int]string{
	http.StatusOK:                    "OK",
	http.StatusCreated:               "Created",
	http.StatusBadRequest:            "Bad Request",
	http.StatusUnauthorized:          "Unauthorized",
	http.StatusForbidden:             "Forbidden",
	http.StatusNotFound:              "Not Found",
	http.StatusConflict:              "Conflict",
	http.StatusRequestEntityTooLarge: "Request body too large",
	http.StatusTooManyRequests:       "Too many requests",
	http.StatusInternalServerError:   "Internal Server Error",
	http.StatusServiceUnavailable:    "Server busy",
	http.StatusGatewayTimeout:        "Timeout",
}

// Text 未登记的状态码退回标准文案
func Text(code int) string {
	if m, ok := CodeMsgMap[code]; ok {
		return m
	}
	return http.StatusText(code)
}
