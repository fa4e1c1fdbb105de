package docker

import "fmt"

// ContainerNotFoundError reports that the engine no longer knows the named
// container. The monitor checks for it through the IsNotFound marker so a
// container that exits between list and sample is skipped silently.
type ContainerNotFoundError struct {
	Name string
}

func (e *ContainerNotFoundError) Error() string {
	return fmt.Sprintf("container %s not found", e.Name)
}

// IsNotFound marks the error for errors.As checks in the logic layer.
func (e *ContainerNotFoundError) IsNotFound() {}
