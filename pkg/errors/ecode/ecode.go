package ecode

// 错误码定义。0 表示成功，1xxxx 为通用错误，2xxxx 为交易相关错误
const (
	Success     = 0
	InternalErr = 10001
	// 请求参数错误（绑定失败等）
	InvalidParamsErr = 10002
	// 资源不存在
	NotFoundErr = 10003

	// 订单参数校验失败，重试同样的输入没有意义
	ValidationErr = 20001
	// 券商接口通信失败，下一个tick重试即可
	BrokerCommunicationErr = 20002
	// 价格无法解析为十进制数
	InvalidPriceErr = 20003
)

var messages = map[int]string{
	Success:                "OK",
	InternalErr:            "internal server error",
	InvalidParamsErr:       "invalid request parameters",
	NotFoundErr:            "resource not found",
	ValidationErr:          "order validation failed",
	BrokerCommunicationErr: "broker communication failed",
	InvalidPriceErr:        "invalid price",
}

func Message(code int) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return messages[InternalErr]
}
