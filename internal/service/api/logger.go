package api

import (
	"fmt"
	"io"

	applog "github.com/darkkaiser/pricewatch/pkg/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

const componentEcho = "api.echo"

// echoLogger Echo 내부 로그(github.com/labstack/gommon/log.Logger)를 애플리케이션 로거로 전달합니다.
//
// 로그 레벨은 애플리케이션 설정(debug)이 결정하므로 Echo의 SetLevel 호출은 무시합니다.
type echoLogger struct {
	logger *applog.Logger
}

var _ echo.Logger = (*echoLogger)(nil)

func newEchoLogger() *echoLogger {
	return &echoLogger{logger: applog.StandardLogger()}
}

func (l *echoLogger) entry() *applog.Entry {
	return applog.WithComponent(componentEcho)
}

func (l *echoLogger) entryJSON(j log.JSON) *applog.Entry {
	return applog.WithComponentAndFields(componentEcho, applog.Fields(j))
}

func (l *echoLogger) Output() io.Writer   { return l.logger.Out }
func (l *echoLogger) SetOutput(io.Writer) {}
func (l *echoLogger) Prefix() string      { return componentEcho }
func (l *echoLogger) SetPrefix(string)    {}
func (l *echoLogger) SetHeader(string)    {}
func (l *echoLogger) SetLevel(log.Lvl)    {}

// Level 애플리케이션 로그 레벨에 대응하는 Echo 로그 레벨을 반환합니다. Trace는 DEBUG로 취급합니다.
func (l *echoLogger) Level() log.Lvl {
	switch l.logger.GetLevel() {
	case applog.TraceLevel, applog.DebugLevel:
		return log.DEBUG
	case applog.InfoLevel:
		return log.INFO
	case applog.WarnLevel:
		return log.WARN
	case applog.ErrorLevel:
		return log.ERROR
	}
	return log.OFF
}

func (l *echoLogger) Print(i ...any)                 { l.entry().Info(i...) }
func (l *echoLogger) Printf(format string, a ...any) { l.entry().Infof(format, a...) }
func (l *echoLogger) Printj(j log.JSON)              { l.entryJSON(j).Info() }
func (l *echoLogger) Debug(i ...any)                 { l.entry().Debug(i...) }
func (l *echoLogger) Debugf(format string, a ...any) { l.entry().Debugf(format, a...) }
func (l *echoLogger) Debugj(j log.JSON)              { l.entryJSON(j).Debug() }
func (l *echoLogger) Info(i ...any)                  { l.entry().Info(i...) }
func (l *echoLogger) Infof(format string, a ...any)  { l.entry().Infof(format, a...) }
func (l *echoLogger) Infoj(j log.JSON)               { l.entryJSON(j).Info() }
func (l *echoLogger) Warn(i ...any)                  { l.entry().Warn(i...) }
func (l *echoLogger) Warnf(format string, a ...any)  { l.entry().Warnf(format, a...) }
func (l *echoLogger) Warnj(j log.JSON)               { l.entryJSON(j).Warn() }
func (l *echoLogger) Error(i ...any)                 { l.entry().Error(i...) }
func (l *echoLogger) Errorf(format string, a ...any) { l.entry().Errorf(format, a...) }
func (l *echoLogger) Errorj(j log.JSON)              { l.entryJSON(j).Error() }

// Fatal 서버 프로세스를 종료시키지 않도록 Error로 기록한 뒤 panic을 발생시킵니다. panic은 PanicRecovery 미들웨어가 복구합니다.
func (l *echoLogger) Fatal(i ...any) {
	l.entry().Error(i...)
	panic(fmt.Sprint(i...))
}

func (l *echoLogger) Fatalf(format string, a ...any) {
	l.entry().Errorf(format, a...)
	panic(fmt.Sprintf(format, a...))
}

func (l *echoLogger) Fatalj(j log.JSON) {
	l.entryJSON(j).Error()
	panic(fmt.Sprint(j))
}

func (l *echoLogger) Panic(i ...any)                 { l.entry().Panic(i...) }
func (l *echoLogger) Panicf(format string, a ...any) { l.entry().Panicf(format, a...) }
func (l *echoLogger) Panicj(j log.JSON)              { l.entryJSON(j).Panic() }
