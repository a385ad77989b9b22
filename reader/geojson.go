package reader

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Feature 一个矢量要素
type Feature struct {
	Layer      string         // 图层名 (文件名去掉扩展名)
	Index      int            // 要素在图层中的序号
	Geometry   orb.Geometry   // 可能为 nil
	Properties map[string]any // 属性字段
}

// FeatureError 单个要素无法解析
type FeatureError struct {
	Layer string
	Index int
	Err   error
}

func (e *FeatureError) Error() string {
	return fmt.Sprintf("图层 %s 第 %d 个要素: %v", e.Layer, e.Index, e.Err)
}

func (e *FeatureError) Unwrap() error { return e.Err }

// decodeGeoJSONFile 逐个产出文件中的要素，不会一次性把整个文件读进内存
func decodeGeoJSONFile(path, layer string) iter.Seq2[Feature, error] {
	return func(yield func(Feature, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(Feature{Layer: layer}, fmt.Errorf("无法打开 %s: %w", path, err))
			return
		}
		defer f.Close()

		for feat, err := range Decode(bufio.NewReader(f), layer) {
			if !yield(feat, err) {
				return
			}
		}
	}
}

// Decode 从 r 中流式解析 FeatureCollection
func Decode(r io.Reader, layer string) iter.Seq2[Feature, error] {
	return func(yield func(Feature, error) bool) {
		dec := json.NewDecoder(r)
		if err := seekFeatures(dec); err != nil {
			yield(Feature{Layer: layer}, fmt.Errorf("解析 %s 失败: %w", layer, err))
			return
		}

		for i := 0; dec.More(); i++ {
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				yield(Feature{Layer: layer, Index: i}, fmt.Errorf("解析 %s 失败: %w", layer, err))
				return
			}

			gf, err := geojson.UnmarshalFeature(raw)
			if err != nil {
				if !yield(Feature{Layer: layer, Index: i}, &FeatureError{Layer: layer, Index: i, Err: err}) {
					return
				}
				continue
			}

			feat := Feature{
				Layer:      layer,
				Index:      i,
				Geometry:   gf.Geometry,
				Properties: map[string]any(gf.Properties),
			}
			if !yield(feat, nil) {
				return
			}
		}

		// 文件在某个完整要素之后被截断时 More() 同样返回 false，必须看到结尾才算读完
		if err := closeCollection(dec); err != nil {
			yield(Feature{Layer: layer}, fmt.Errorf("解析 %s 失败: %w", layer, err))
		}
	}
}

// closeCollection 读完 features 数组的 ']' 以及顶层对象剩余的字段和 '}'
func closeCollection(dec *json.Decoder) error {
	if err := expectDelim(dec, ']'); err != nil {
		return err
	}
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return err
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return err
		}
	}
	return expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("文件不完整，缺少 '%c'", rune(want))
	}
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("期望 '%c'，得到 %v", rune(want), tok)
	}
	return nil
}

// seekFeatures 把解码器移动到 "features" 数组内部
func seekFeatures(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("顶层不是 JSON 对象")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		if key != "features" {
			// 跳过其它字段 (type, crs, bbox ...)
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return err
			}
			continue
		}

		tok, err = dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); !ok || d != '[' {
			return errors.New("features 不是数组")
		}
		return nil
	}
	return errors.New("缺少 features 字段")
}
