package ai

import (
	"context"
	"errors"
	"strings"
)

// ErrorKind 面向用户的错误分类
type ErrorKind string

const (
	ErrorKindConnectivity ErrorKind = "connectivity"
	ErrorKindTimeout      ErrorKind = "timeout"
	ErrorKindAuth         ErrorKind = "auth"
	ErrorKindUnknown      ErrorKind = "unknown"
)

var kindKeywords = []struct {
	kind     ErrorKind
	keywords []string
}{
	{ErrorKindTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{ErrorKindConnectivity, []string{"network", "connection refused", "connection reset", "no such host", "dial tcp", "fetch", "eof", "unreachable"}},
	{ErrorKindAuth, []string{
		"401", "403", "unauthorized", "forbidden", "authentication",
		"invalid token", "token expired", "invalid api key", "incorrect api key",
		"jwt", "session expired",
	}},
}

// ClassifyError 按错误信息的关键词归类
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return ErrorKindUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}

	msg := strings.ToLower(err.Error())
	for _, k := range kindKeywords {
		for _, kw := range k.keywords {
			if strings.Contains(msg, kw) {
				return k.kind
			}
		}
	}
	return ErrorKindUnknown
}

var apologies = map[ErrorKind]string{
	ErrorKindConnectivity: "Desculpe, estou com problemas de conexão no momento. Tente novamente em instantes ou escolha uma opção do menu.",
	ErrorKindTimeout:      "Desculpe, a resposta demorou mais do que o esperado. Tente novamente ou escolha uma opção do menu.",
	ErrorKindAuth:         "Sua sessão expirou. Entre novamente para continuar a conversa.",
	ErrorKindUnknown:      "Desculpe, algo deu errado ao processar sua mensagem. Escolha uma opção do menu para continuar.",
}

// Apology 错误对应的致歉文案
func Apology(err error) string {
	return apologies[ClassifyError(err)]
}
