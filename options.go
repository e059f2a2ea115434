package imagecache

import "github.com/sirupsen/logrus"

// Options 缓存配置选项
type Options struct {
	Logger logrus.FieldLogger // 日志记录器
}

// DefaultOptions 返回默认配置
func DefaultOptions() Options {
	return Options{
		Logger: logrus.StandardLogger(),
	}
}

// Option 定义缓存的配置选项
type Option func(*Options)

// WithLogger 设置日志记录器
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// loaderOptions 加载器配置选项
type loaderOptions struct {
	logger          logrus.FieldLogger
	prefetchWorkers int
}

// LoaderOption 定义加载器的配置选项
type LoaderOption func(*loaderOptions)

// WithLoaderLogger 设置加载器的日志记录器
func WithLoaderLogger(logger logrus.FieldLogger) LoaderOption {
	return func(o *loaderOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPrefetchConcurrency 设置 Prefetch 的并发解码数量，小于等于 0 表示不限制
func WithPrefetchConcurrency(workers int) LoaderOption {
	return func(o *loaderOptions) {
		o.prefetchWorkers = workers
	}
}
