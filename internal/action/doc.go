// Package action resuelve acciones out-of-band iniciadas por un link enviado por email:
// verificación de email, reset de password y sign-in por magic link.
//
// Cada flow es una máquina de estados explícita (Idle, Working, ReadyForInput,
// Submitting, Success, Error). Las llamadas al proveedor de identidad pasan por
// TokenClient y el único estado que cruza del request a la completion es el
// PendingEmailStore del browsing context.
//
// Los flows son seguros para uso concurrente: mientras hay una llamada en vuelo
// (Working/Submitting) o el flow ya terminó, un nuevo Start/Submit se rechaza con
// ErrSubmissionRejected y no llega al proveedor.
package action
