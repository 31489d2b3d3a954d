package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/taskverse/internal/vec"
)

func TestRegistry_ReleaseAppliesStashAtFinalPosition(t *testing.T) {
	r := NewRegistry(NewSpace(10000))
	r.Upsert(Planet{ID: "p1", Pos: vec.New(100, 100), Radius: 30})
	r.Protect("p1")

	// Анимация двигает планету
	require.True(t, r.SetPosition("p1", vec.New(400, 400)))

	// Пришла синхронизация с новым статусом и старой серверной позицией
	r.ApplySync([]Planet{{ID: "p1", Pos: vec.New(100, 100), Radius: 30, Completed: true}})

	cur, ok := r.Get("p1")
	require.True(t, ok)
	assert.Equal(t, vec.New(400, 400), cur.Pos, "защищённый объект не перезаписан")
	assert.False(t, cur.Completed)

	r.Release("p1", vec.New(900, 900))

	cur, _ = r.Get("p1")
	assert.Equal(t, vec.New(900, 900), cur.Pos)
	assert.True(t, cur.Completed)
	assert.False(t, r.IsProtected("p1"))
	_, stashed := r.Stashed("p1")
	assert.False(t, stashed)
}

func TestRegistry_NearbyAcrossEdge(t *testing.T) {
	r := NewRegistry(NewSpace(10000))
	r.Upsert(Planet{ID: "edge", Pos: vec.New(9990, 5000), Radius: 20})
	r.Upsert(Planet{ID: "far", Pos: vec.New(5000, 5000), Radius: 20})

	near := r.Nearby(vec.New(15, 5000), 30)
	require.Len(t, near, 1)
	assert.Equal(t, "edge", near[0].ID)
}

func TestRegistry_Remove(t *testing.T) {
	r := NewRegistry(NewSpace(10000))
	r.Upsert(Planet{ID: "x", Pos: vec.New(1, 1), Radius: 5})
	r.Protect("x")
	r.Remove("x")

	assert.Equal(t, 0, r.Len())
	assert.False(t, r.IsProtected("x"))
	assert.Empty(t, r.Nearby(vec.New(1, 1), 10))
}

func TestSpatialIndex_UpdateMovesEntity(t *testing.T) {
	si := NewSpatialIndex(NewSpace(1000), 100)
	si.Insert("a", vec.New(50, 50), 5)
	si.Update("a", vec.New(850, 850), 5)

	assert.Empty(t, si.QueryRange(vec.New(50, 50), 10))
	assert.Equal(t, []string{"a"}, si.QueryRange(vec.New(860, 860), 20))
	assert.Equal(t, 1, si.GetEntityCount())

	si.Remove("a")
	assert.Equal(t, 0, si.GetCellCount())
}

func TestGenerator_Deterministic(t *testing.T) {
	space := NewSpace(10000)
	a := NewGenerator(99, space).GenerateField(vec.New(3000, 3000), 2000)
	b := NewGenerator(99, space).GenerateField(vec.New(3000, 3000), 2000)

	assert.Equal(t, a, b)
	for _, p := range a {
		assert.True(t, p.Kind == KindAsteroid || p.Kind == KindDecoration)
		if p.Kind == KindAsteroid {
			assert.Greater(t, p.Health, 0.0)
			assert.True(t, p.Destructible())
		}
		assert.True(t, p.Pos.X >= 0 && p.Pos.X < space.Size)
	}
}

func TestPlanet_ApplyDamage(t *testing.T) {
	rock := Planet{Kind: KindAsteroid, Health: 10}
	assert.False(t, rock.ApplyDamage(4))
	assert.True(t, rock.ApplyDamage(7))
	assert.Equal(t, 0.0, rock.Health)
	assert.False(t, rock.ApplyDamage(3), "повторное уничтожение не сообщается")

	task := Planet{Kind: KindTask, Health: 10}
	assert.False(t, task.ApplyDamage(100))
	assert.True(t, task.Shielded())
}

func TestRegistry_IndexStats(t *testing.T) {
	r := NewRegistry(NewSpace(10000))
	r.Upsert(Planet{ID: "a", Pos: vec.New(100, 100), Radius: 10})
	r.Upsert(Planet{ID: "b", Pos: vec.New(200, 100), Radius: 10})

	assert.Contains(t, r.IndexStats(), "2 entities")
}
