package cache

import (
	"errors"
	"reflect"

	"github.com/ugorji/go/codec"
)

// msgpackHandle 缓存值使用的msgpack编码,struct字段名取codec tag,计数项因此只占很少的字节;
// 解码到interface{}时map统一为map[string]interface{}
var msgpackHandle = &codec.MsgpackHandle{}

func init() {
	msgpackHandle.MapType = reflect.TypeOf(map[string]interface{}(nil))
}

// MsgPackEncodeBytes 将写入Redis的值编码为msgpack,用于SetObject和计数项缓存
func MsgPackEncodeBytes(data interface{}) (encoded []byte, err error) {
	err = codec.NewEncoderBytes(&encoded, msgpackHandle).Encode(data)
	return
}

// MsgPackDecodeBytes 解码从Redis读取的msgpack值,空值视为错误以便调用方回源
func MsgPackDecodeBytes(encoded []byte, dest interface{}) error {
	if len(encoded) == 0 {
		return errors.New("nil bytes to decode")
	}
	return codec.NewDecoderBytes(encoded, msgpackHandle).Decode(dest)
}
