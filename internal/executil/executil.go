package executil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"text/template"
	"time"
)

// waitDelay bounds how long Wait blocks on output pipes after the context kills the process.
const waitDelay = time.Second

// TemplateData defines the fields available in command, argument and env templates.
type TemplateData struct {
	// Args are tool arguments.
	Args map[string]any
	// ToolName is the tool name.
	ToolName string
	// ExecutionID identifies the scheduled execution.
	ExecutionID string
	// SessionID identifies the caller session.
	SessionID string
	// UserID identifies the caller.
	UserID string
}

// Output is the captured result of a command.
type Output struct {
	// Text is combined stdout and stderr.
	Text string
	// ExitCode is -1 when the process did not start or was killed.
	ExitCode int
}

// RenderTemplate renders a string template with TemplateData.
// The "arg" helper returns a single argument by name.
func RenderTemplate(value string, data TemplateData) (string, error) {
	tmpl, err := template.New("value").Option("missingkey=zero").Funcs(template.FuncMap{
		"arg": func(name string) any {
			if data.Args == nil {
				return nil
			}
			return data.Args[name]
		},
	}).Parse(value)
	if err != nil {
		return "", fmt.Errorf("template parse: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template render: %w", err)
	}
	return buf.String(), nil
}

// BuildCommand builds an exec.Cmd with rendered command, args and env.
// Without args the command runs through bash -c.
func BuildCommand(ctx context.Context, command string, args []string, env map[string]string, data TemplateData) (*exec.Cmd, error) {
	renderedCommand, err := RenderTemplate(command, data)
	if err != nil {
		return nil, err
	}

	renderedArgs := make([]string, 0, len(args))
	for _, arg := range args {
		rendered, err := RenderTemplate(arg, data)
		if err != nil {
			return nil, err
		}
		renderedArgs = append(renderedArgs, rendered)
	}

	var cmd *exec.Cmd
	if len(renderedArgs) == 0 {
		cmd = exec.CommandContext(ctx, "bash", "-c", renderedCommand)
	} else {
		cmd = exec.CommandContext(ctx, renderedCommand, renderedArgs...)
	}

	cmd.WaitDelay = waitDelay
	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env,
		"TOOL_NAME="+data.ToolName,
		"TOOL_EXECUTION_ID="+data.ExecutionID,
	)
	for key, value := range env {
		rendered, err := RenderTemplate(value, data)
		if err != nil {
			return nil, err
		}
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, rendered))
	}

	return cmd, nil
}

// RunCommand executes a command and captures its output and exit code.
func RunCommand(ctx context.Context, command string, args []string, env map[string]string, data TemplateData) (Output, error) {
	cmd, err := BuildCommand(ctx, command, args, env, data)
	if err != nil {
		return Output{ExitCode: -1}, err
	}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err = cmd.Run()
	out := Output{Text: buf.String(), ExitCode: -1}
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}
	return out, err
}
