package application_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/keyring/internal/core/application"
	"github.com/vulpemventures/keyring/internal/core/domain"
)

func TestAddressSubject(t *testing.T) {
	subject := application.NewAddressSubject(application.AddressesSubject)
	require.Equal(t, application.AddressesSubject, subject.Name())

	first, second := make([]int, 0), make([]int, 0)
	order := make([]string, 0)
	unsubscribeFirst := subject.Subscribe(func(e application.SubjectEvent) {
		first = append(first, int(e.EventType))
		order = append(order, "first")
	})
	subject.Subscribe(func(e application.SubjectEvent) {
		second = append(second, int(e.EventType))
		order = append(order, "second")
	})

	entry := application.SingleAddress{
		Address: "b",
		Meta:    domain.Meta{domain.MetaName: "bob"},
	}
	subject.Add(entry)
	subject.Add(application.SingleAddress{Address: "a"})

	// Mutating the added entry must not affect the registry.
	entry.Meta[domain.MetaName] = "eve"
	got, ok := subject.Get("b")
	require.True(t, ok)
	require.Equal(t, "bob", got.Meta.Name())

	got.Meta[domain.MetaName] = "eve"
	got, _ = subject.Get("b")
	require.Equal(t, "bob", got.Meta.Name())

	subject.Add(application.SingleAddress{Address: "b", IsLocked: true})
	require.Equal(t, 2, subject.Len())
	require.Equal(t, []string{"a", "b"}, subject.All().Addresses())

	subject.Remove("b")
	subject.Remove("b")
	require.False(t, subject.Has("b"))
	_, ok = subject.Get("b")
	require.False(t, ok)

	expected := []int{
		int(application.SubjectEntryAdded),
		int(application.SubjectEntryAdded),
		int(application.SubjectEntryUpdated),
		int(application.SubjectEntryRemoved),
	}
	require.Equal(t, expected, first)
	require.Equal(t, expected, second)
	require.Equal(t, []string{"first", "second"}, order[:2])

	unsubscribeFirst()
	subject.Add(application.SingleAddress{Address: "c"})
	require.Len(t, first, 4)
	require.Len(t, second, 5)
}
