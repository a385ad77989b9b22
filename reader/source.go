package reader

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jonas-p/go-shp"
)

// 支持的文件格式
const (
	FormatGeoJSON   = "geojson"
	FormatShapefile = "shapefile"
)

// ErrUnsupportedFormat 文件扩展名无法识别
var ErrUnsupportedFormat = errors.New("不支持的文件格式")

// Source 一个图层: 一个 GeoJSON FeatureCollection 或一个 Shapefile
type Source struct {
	Path   string
	Layer  string // 文件名去掉扩展名
	Format string
}

// formatOf 按扩展名判断格式
func formatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return FormatGeoJSON, nil
	case ".shp":
		return FormatShapefile, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Open 打开单个图层文件，并检查是否可读
func Open(path string) (*Source, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatShapefile:
		// 读取文件头，顺带检查 .shp 是否完整
		r, err := shp.Open(path)
		if err != nil {
			return nil, fmt.Errorf("无法打开 %s: %w", path, err)
		}
		_ = r.Close()
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("无法打开 %s: %w", path, err)
		}
		_ = f.Close()
	}

	base := filepath.Base(path)
	return &Source{
		Path:   path,
		Layer:  strings.TrimSuffix(base, filepath.Ext(base)),
		Format: format,
	}, nil
}

// Layers 打开一个数据源的所有图层
// path 是文件时只有一个图层；是目录时按文件名顺序取其中所有可识别的文件，其它文件忽略
func Layers(path string) ([]*Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开 %s: %w", path, err)
	}
	if !info.IsDir() {
		src, err := Open(path)
		if err != nil {
			return nil, err
		}
		return []*Source{src}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取目录 %s: %w", path, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := formatOf(e.Name()); err == nil {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s 中没有图层", ErrUnsupportedFormat, path)
	}
	sort.Strings(names)

	sources := make([]*Source, 0, len(names))
	for _, name := range names {
		src, err := Open(filepath.Join(path, name))
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// Features 逐个产出要素
// 单个要素解析失败时产出 *FeatureError 并继续；文件结构损坏时产出普通 error 并停止
func (s *Source) Features() iter.Seq2[Feature, error] {
	if s.Format == FormatShapefile {
		return decodeShapefile(s.Path, s.Layer)
	}
	return decodeGeoJSONFile(s.Path, s.Layer)
}
